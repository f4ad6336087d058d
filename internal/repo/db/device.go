package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/JMURv/device-auth/internal/config"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// WithAccountLock runs fn in a transaction holding a row lock on the account,
// so concurrent allocations for the same account are serialized. fn's writes
// are committed only if it returns nil.
func (r *Repository) WithAccountLock(
	ctx context.Context,
	accountID uuid.UUID,
	fn func(ctx context.Context, tx repo.DeviceTx) error,
) error {
	const op = "devices.WithAccountLock.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	tx, err := r.conn.BeginTxx(ctx, nil)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to begin transaction", zap.String("op", op), zap.Error(err))
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Debug("failed to rollback transaction", zap.String("op", op), zap.Error(err))
		}
	}()

	var quota int
	if err = tx.QueryRowxContext(ctx, accountLockQ, accountID).Scan(&quota); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repo.ErrNotFound
		}
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to lock account", zap.String("op", op), zap.Error(err))
		return err
	}

	if err = fn(ctx, &deviceTx{tx: tx, accountID: accountID, quota: quota}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to commit transaction", zap.String("op", op), zap.Error(err))
		return err
	}

	return nil
}

type deviceTx struct {
	tx        *sqlx.Tx
	accountID uuid.UUID
	quota     int
}

func (t *deviceTx) MaxDevices() int {
	return t.quota
}

func (t *deviceTx) ListDevices(ctx context.Context) ([]md.Device, error) {
	res := make([]md.Device, 0)
	if err := t.tx.SelectContext(ctx, &res, listDevices, t.accountID); err != nil {
		return nil, err
	}
	return res, nil
}

func (t *deviceTx) CreateDevice(ctx context.Context, d *md.Device) error {
	d.AccountID = t.accountID
	_, err := t.tx.ExecContext(ctx, createDevice, t.accountID, d.DeviceID, d.Name, d.LastActive, d.CreatedAt)
	if err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (t *deviceTx) TouchDevice(ctx context.Context, deviceID string, at time.Time) error {
	res, err := t.tx.ExecContext(ctx, touchDevice, at, t.accountID, deviceID)
	if err != nil {
		return err
	}

	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if aff == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *Repository) ListDevices(ctx context.Context, accountID uuid.UUID) ([]md.Device, error) {
	const op = "devices.ListDevices.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := make([]md.Device, 0)
	if err := r.conn.SelectContext(ctx, &res, listDevices, accountID); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to list devices", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	return res, nil
}

func (r *Repository) CountDevices(ctx context.Context, accountID uuid.UUID) (int, error) {
	const op = "devices.CountDevices.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	var count int
	if err := r.conn.GetContext(ctx, &count, countDevices, accountID); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to count devices", zap.String("op", op), zap.Error(err))
		return 0, err
	}

	return count, nil
}

func (r *Repository) DeleteDevice(ctx context.Context, accountID uuid.UUID, deviceID string) error {
	const op = "devices.DeleteDevice.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, deleteDevice, accountID, deviceID)
	return r.expectOneRow(span, op, res, err)
}

func (r *Repository) DeleteAllDevices(ctx context.Context, accountID uuid.UUID) error {
	const op = "devices.DeleteAllDevices.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if _, err := r.conn.ExecContext(ctx, deleteAllDevices, accountID); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to delete devices", zap.String("op", op), zap.Error(err))
		return err
	}

	return nil
}
