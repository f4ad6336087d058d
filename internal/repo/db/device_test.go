package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deviceColumns = []string{"account_id", "device_id", "name", "last_active", "created_at"}

func TestRepository_WithAccountLock(t *testing.T) {
	r, mock := newMockRepo(t)
	ctx := context.Background()
	accID := uuid.New()
	now := time.Now().UTC()
	errFn := errors.New("fn failed")

	tests := []struct {
		name   string
		setup  func()
		fn     func(ctx context.Context, tx repo.DeviceTx) error
		expect func(t *testing.T, err error)
	}{
		{
			name: "CreatesSlot",
			setup: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(accountLockQ)).
					WithArgs(accID).
					WillReturnRows(sqlmock.NewRows([]string{"max_devices"}).AddRow(3))
				mock.ExpectQuery(regexp.QuoteMeta(listDevices)).
					WithArgs(accID).
					WillReturnRows(sqlmock.NewRows(deviceColumns))
				mock.ExpectExec(regexp.QuoteMeta(createDevice)).
					WithArgs(accID, "dev-1", "Laptop", now, now).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			fn: func(ctx context.Context, tx repo.DeviceTx) error {
				devices, err := tx.ListDevices(ctx)
				if err != nil {
					return err
				}
				if len(devices) != 0 {
					return errors.New("expected no devices")
				}
				if tx.MaxDevices() != 3 {
					return errors.New("expected quota from the locked row")
				}
				return tx.CreateDevice(ctx, &md.Device{
					DeviceID:   "dev-1",
					Name:       "Laptop",
					LastActive: now,
					CreatedAt:  now,
				})
			},
			expect: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "RenewsSlot",
			setup: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(accountLockQ)).
					WithArgs(accID).
					WillReturnRows(sqlmock.NewRows([]string{"max_devices"}).AddRow(3))
				mock.ExpectQuery(regexp.QuoteMeta(listDevices)).
					WithArgs(accID).
					WillReturnRows(
						sqlmock.NewRows(deviceColumns).AddRow(accID.String(), "dev-1", "Laptop", now, now),
					)
				mock.ExpectExec(regexp.QuoteMeta(touchDevice)).
					WithArgs(now, accID, "dev-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			},
			fn: func(ctx context.Context, tx repo.DeviceTx) error {
				devices, err := tx.ListDevices(ctx)
				if err != nil {
					return err
				}
				return tx.TouchDevice(ctx, devices[0].DeviceID, now)
			},
			expect: func(t *testing.T, err error) {
				assert.NoError(t, err)
			},
		},
		{
			name: "AccountNotFound",
			setup: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(accountLockQ)).
					WithArgs(accID).
					WillReturnRows(sqlmock.NewRows([]string{"max_devices"}))
				mock.ExpectRollback()
			},
			fn: func(context.Context, repo.DeviceTx) error {
				return errors.New("must not run")
			},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, repo.ErrNotFound)
			},
		},
		{
			name: "FnErrorRollsBack",
			setup: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(accountLockQ)).
					WithArgs(accID).
					WillReturnRows(sqlmock.NewRows([]string{"max_devices"}).AddRow(3))
				mock.ExpectRollback()
			},
			fn: func(context.Context, repo.DeviceTx) error {
				return errFn
			},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, errFn)
			},
		},
		{
			name: "DuplicateSlot",
			setup: func() {
				mock.ExpectBegin()
				mock.ExpectQuery(regexp.QuoteMeta(accountLockQ)).
					WithArgs(accID).
					WillReturnRows(sqlmock.NewRows([]string{"max_devices"}).AddRow(3))
				mock.ExpectExec(regexp.QuoteMeta(createDevice)).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
				mock.ExpectRollback()
			},
			fn: func(ctx context.Context, tx repo.DeviceTx) error {
				return tx.CreateDevice(ctx, &md.Device{DeviceID: "dev-1"})
			},
			expect: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, repo.ErrAlreadyExists)
			},
		},
		{
			name: "BeginError",
			setup: func() {
				mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))
			},
			fn: func(context.Context, repo.DeviceTx) error {
				return nil
			},
			expect: func(t *testing.T, err error) {
				assert.EqualError(t, err, "pool exhausted")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			tt.expect(t, r.WithAccountLock(ctx, accID, tt.fn))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Devices(t *testing.T) {
	r, mock := newMockRepo(t)
	ctx := context.Background()
	accID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(listDevices)).
		WithArgs(accID).
		WillReturnRows(
			sqlmock.NewRows(deviceColumns).
				AddRow(accID.String(), "dev-1", "Laptop", now, now).
				AddRow(accID.String(), "dev-2", "Phone", now, now),
		)
	devices, err := r.ListDevices(ctx, accID)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "dev-2", devices[1].DeviceID)
	assert.Equal(t, accID, devices[0].AccountID)

	mock.ExpectQuery(regexp.QuoteMeta(countDevices)).
		WithArgs(accID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	count, err := r.CountDevices(ctx, accID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	mock.ExpectExec(regexp.QuoteMeta(deleteDevice)).
		WithArgs(accID, "dev-3").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, r.DeleteDevice(ctx, accID, "dev-3"), repo.ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta(deleteAllDevices)).
		WithArgs(accID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	assert.NoError(t, r.DeleteAllDevices(ctx, accID))

	mock.ExpectQuery(regexp.QuoteMeta(countDevices)).
		WithArgs(accID).
		WillReturnError(errors.New("timeout"))
	_, err = r.CountDevices(ctx, accID)
	assert.EqualError(t, err, "timeout")

	assert.NoError(t, mock.ExpectationsWereMet())
}
