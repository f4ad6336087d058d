package repo

import (
	"context"
	"errors"
	"time"

	md "github.com/JMURv/device-auth/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// DeviceTx is the view of one account's device slots held inside that
// account's critical section. Implementations guarantee that no other
// DeviceTx for the same account runs concurrently and that writes are
// applied all-or-nothing. MaxDevices is the quota read under the lock.
type DeviceTx interface {
	MaxDevices() int
	ListDevices(ctx context.Context) ([]md.Device, error)
	CreateDevice(ctx context.Context, d *md.Device) error
	TouchDevice(ctx context.Context, deviceID string, at time.Time) error
}

type AccountFilter struct {
	IsActive *bool
	IsOnline *bool
	Role     md.Role
}
