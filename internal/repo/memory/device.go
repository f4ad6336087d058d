package memory

import (
	"context"

	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/google/uuid"
)

func (r *Repository) ListDevices(_ context.Context, accountID uuid.UUID) ([]md.Device, error) {
	return r.listDevices(accountID), nil
}

func (r *Repository) CountDevices(_ context.Context, accountID uuid.UUID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices[accountID]), nil
}

func (r *Repository) DeleteDevice(_ context.Context, accountID uuid.UUID, deviceID string) error {
	l := r.accountLock(accountID)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[accountID][deviceID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.devices[accountID], deviceID)
	return nil
}

func (r *Repository) DeleteAllDevices(_ context.Context, accountID uuid.UUID) error {
	l := r.accountLock(accountID)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.devices, accountID)
	return nil
}
