package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccount(t *testing.T, r *Repository, username string) *md.Account {
	t.Helper()
	a := &md.Account{Username: username, Role: md.RoleUser, IsActive: true, MaxDevices: 2}
	require.NoError(t, r.CreateAccount(context.Background(), a))
	return a
}

func TestRepository_Accounts(t *testing.T) {
	ctx := context.Background()
	r := New()

	alice := seedAccount(t, r, "alice")
	assert.NotEqual(t, uuid.Nil, alice.ID)

	err := r.CreateAccount(ctx, &md.Account{Username: "alice"})
	assert.ErrorIs(t, err, repo.ErrAlreadyExists)

	got, err := r.GetAccountByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = r.GetAccountByUsername(ctx, "bob")
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, r.SetPresence(ctx, alice.ID, true))
	got, err = r.GetAccountByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOnline)

	got.IsActive = false
	got.MaxDevices = 5
	require.NoError(t, r.UpdateAccount(ctx, got))
	got, err = r.GetAccountByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, 5, got.MaxDevices)

	got.Username = "mutated"
	again, err := r.GetAccountByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", again.Username)

	require.NoError(t, r.DeleteAccount(ctx, alice.ID))
	assert.ErrorIs(t, r.DeleteAccount(ctx, alice.ID), repo.ErrNotFound)
	assert.ErrorIs(t, r.SetPresence(ctx, alice.ID, false), repo.ErrNotFound)
}

func TestRepository_DeleteAccount_PrunesLock(t *testing.T) {
	ctx := context.Background()
	r := New()
	a := seedAccount(t, r, "alice")

	require.NoError(t, r.WithAccountLock(ctx, a.ID, func(context.Context, repo.DeviceTx) error { return nil }))
	r.locksMu.Lock()
	assert.Contains(t, r.locks, a.ID)
	r.locksMu.Unlock()

	require.NoError(t, r.DeleteAccount(ctx, a.ID))

	r.locksMu.Lock()
	assert.NotContains(t, r.locks, a.ID)
	r.locksMu.Unlock()

	err := r.WithAccountLock(ctx, a.ID, func(context.Context, repo.DeviceTx) error { return nil })
	assert.ErrorIs(t, err, repo.ErrNotFound)

	r.locksMu.Lock()
	assert.Empty(t, r.locks)
	r.locksMu.Unlock()
}

func TestRepository_ListAccounts(t *testing.T) {
	ctx := context.Background()
	r := New()
	for _, name := range []string{"carol", "alice", "bob"} {
		seedAccount(t, r, name)
	}
	admin := &md.Account{Username: "admin", Role: md.RoleAdmin, IsActive: true, MaxDevices: 999}
	require.NoError(t, r.CreateAccount(ctx, admin))

	res, total, err := r.ListAccounts(ctx, 1, 2, repo.AccountFilter{Role: md.RoleUser})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, res, 2)
	assert.Equal(t, "alice", res[0].Username)
	assert.Equal(t, "bob", res[1].Username)

	res, _, err = r.ListAccounts(ctx, 2, 2, repo.AccountFilter{Role: md.RoleUser})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "carol", res[0].Username)

	res, _, err = r.ListAccounts(ctx, 5, 2, repo.AccountFilter{})
	require.NoError(t, err)
	assert.Empty(t, res)

	inactive := false
	res, total, err = r.ListAccounts(ctx, 1, 10, repo.AccountFilter{IsActive: &inactive})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, res)
}

func TestRepository_WithAccountLock(t *testing.T) {
	ctx := context.Background()
	r := New()
	a := seedAccount(t, r, "alice")
	now := time.Now()

	err := r.WithAccountLock(ctx, a.ID, func(ctx context.Context, tx repo.DeviceTx) error {
		assert.Equal(t, 2, tx.MaxDevices())
		require.NoError(t, tx.CreateDevice(ctx, &md.Device{DeviceID: "phone-1", LastActive: now, CreatedAt: now}))
		assert.ErrorIs(t, tx.CreateDevice(ctx, &md.Device{DeviceID: "phone-1"}), repo.ErrAlreadyExists)

		list, err := tx.ListDevices(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
		return nil
	})
	require.NoError(t, err)

	count, err := r.CountDevices(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	later := now.Add(time.Hour)
	err = r.WithAccountLock(ctx, a.ID, func(ctx context.Context, tx repo.DeviceTx) error {
		assert.ErrorIs(t, tx.TouchDevice(ctx, "unknown", later), repo.ErrNotFound)
		return tx.TouchDevice(ctx, "phone-1", later)
	})
	require.NoError(t, err)

	list, err := r.ListDevices(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, later, list[0].LastActive)
	assert.Equal(t, a.ID, list[0].AccountID)

	err = r.WithAccountLock(ctx, uuid.New(), func(context.Context, repo.DeviceTx) error { return nil })
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestRepository_WithAccountLock_Rollback(t *testing.T) {
	ctx := context.Background()
	r := New()
	a := seedAccount(t, r, "alice")
	boom := errors.New("boom")

	err := r.WithAccountLock(ctx, a.ID, func(ctx context.Context, tx repo.DeviceTx) error {
		require.NoError(t, tx.CreateDevice(ctx, &md.Device{DeviceID: "phone-1"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	cctx, cancel := context.WithCancel(ctx)
	err = r.WithAccountLock(cctx, a.ID, func(ctx context.Context, tx repo.DeviceTx) error {
		require.NoError(t, tx.CreateDevice(ctx, &md.Device{DeviceID: "phone-2"}))
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)

	count, err := r.CountDevices(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_WithAccountLock_Serializes(t *testing.T) {
	ctx := context.Background()
	r := New()
	a := seedAccount(t, r, "alice")

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = r.WithAccountLock(ctx, a.ID, func(ctx context.Context, tx repo.DeviceTx) error {
				list, err := tx.ListDevices(ctx)
				if err != nil || len(list) >= a.MaxDevices {
					return err
				}
				return tx.CreateDevice(ctx, &md.Device{DeviceID: uuid.NewString()})
			})
		}(i)
	}
	wg.Wait()

	count, err := r.CountDevices(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.MaxDevices, count)
}

func TestRepository_DeleteDevices(t *testing.T) {
	ctx := context.Background()
	r := New()
	a := seedAccount(t, r, "alice")

	require.NoError(t, r.WithAccountLock(ctx, a.ID, func(ctx context.Context, tx repo.DeviceTx) error {
		if err := tx.CreateDevice(ctx, &md.Device{DeviceID: "phone-1"}); err != nil {
			return err
		}
		return tx.CreateDevice(ctx, &md.Device{DeviceID: "laptop-1"})
	}))

	require.NoError(t, r.DeleteDevice(ctx, a.ID, "phone-1"))
	assert.ErrorIs(t, r.DeleteDevice(ctx, a.ID, "phone-1"), repo.ErrNotFound)

	count, err := r.CountDevices(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, r.DeleteAllDevices(ctx, a.ID))
	count, err = r.CountDevices(ctx, a.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
