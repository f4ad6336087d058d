package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/JMURv/device-auth/internal/config"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

func (r *Repository) GetAccountByID(ctx context.Context, id uuid.UUID) (*md.Account, error) {
	const op = "accounts.GetAccountByID.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := &md.Account{}
	if err := r.conn.GetContext(ctx, res, accountGetByIDQ, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to get account", zap.String("op", op), zap.String("id", id.String()), zap.Error(err))
		return nil, err
	}

	return res, nil
}

func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*md.Account, error) {
	const op = "accounts.GetAccountByUsername.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res := &md.Account{}
	if err := r.conn.GetContext(ctx, res, accountGetByUsernameQ, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to get account", zap.String("op", op), zap.String("username", username), zap.Error(err))
		return nil, err
	}

	return res, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a *md.Account) error {
	const op = "accounts.CreateAccount.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	err := r.conn.QueryRowxContext(
		ctx,
		accountCreateQ,
		a.ID,
		a.Username,
		a.Password,
		string(a.Role),
		a.IsActive,
		a.ExpiresAt,
		a.MaxDevices,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err = mapUniqueViolation(err); errors.Is(err, repo.ErrAlreadyExists) {
			return err
		}
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to create account", zap.String("op", op), zap.Error(err))
		return err
	}

	return nil
}

func (r *Repository) UpdateAccount(ctx context.Context, a *md.Account) error {
	const op = "accounts.UpdateAccount.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, accountUpdateQ, a.IsActive, a.ExpiresAt, a.MaxDevices, a.ID)
	return r.expectOneRow(span, op, res, err)
}

func (r *Repository) SetPresence(ctx context.Context, id uuid.UUID, online bool) error {
	const op = "accounts.SetPresence.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, accountSetPresenceQ, online, id)
	return r.expectOneRow(span, op, res, err)
}

func (r *Repository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	const op = "accounts.DeleteAccount.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := r.conn.ExecContext(ctx, accountDeleteQ, id)
	return r.expectOneRow(span, op, res, err)
}

func (r *Repository) ListAccounts(
	ctx context.Context,
	page, size int,
	filter repo.AccountFilter,
) ([]md.AccountSummary, int64, error) {
	const op = "accounts.ListAccounts.repo"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	q, err := buildAccountListQuery(ctx, page, size, filter)
	if err != nil {
		return nil, 0, err
	}

	var count int64
	if err = r.conn.GetContext(ctx, &count, q.countQ, q.countArgs...); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to count accounts", zap.String("op", op), zap.Error(err))
		return nil, 0, err
	}

	res := make([]md.AccountSummary, 0, size)
	if err = r.conn.SelectContext(ctx, &res, q.dataQ, q.dataArgs...); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to list accounts", zap.String("op", op), zap.Error(err))
		return nil, 0, err
	}

	return res, count, nil
}

func (r *Repository) expectOneRow(span opentracing.Span, op string, res sql.Result, err error) error {
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to execute statement", zap.String("op", op), zap.Error(err))
		return err
	}

	aff, err := res.RowsAffected()
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return err
	}

	if aff == 0 {
		return repo.ErrNotFound
	}

	return nil
}
