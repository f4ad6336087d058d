package ctrl

import (
	"context"

	"github.com/JMURv/device-auth/internal/config"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
)

type deviceCtrl interface {
	ListDevices(ctx context.Context, accountID uuid.UUID) ([]md.Device, error)
	DeleteDevice(ctx context.Context, accountID uuid.UUID, deviceID string) error
}

type deviceRepo interface {
	WithAccountLock(
		ctx context.Context,
		accountID uuid.UUID,
		fn func(ctx context.Context, tx repo.DeviceTx) error,
	) error
	ListDevices(ctx context.Context, accountID uuid.UUID) ([]md.Device, error)
	CountDevices(ctx context.Context, accountID uuid.UUID) (int, error)
	DeleteDevice(ctx context.Context, accountID uuid.UUID, deviceID string) error
	DeleteAllDevices(ctx context.Context, accountID uuid.UUID) error
}

// allocateSlot decides, under the account lock, whether deviceID renews an
// existing slot, takes a free one or is rejected. It returns the decision and
// the slot count after it. A rejected device is never persisted. acc.MaxDevices
// is refreshed from the locked row.
func (c *Controller) allocateSlot(
	ctx context.Context,
	acc *md.Account,
	deviceID, name string,
) (md.SlotDecision, int, error) {
	const op = "devices.allocateSlot.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	decision, count := md.SlotRejected, 0
	err := c.repo.WithAccountLock(ctx, acc.ID, func(ctx context.Context, tx repo.DeviceTx) error {
		devices, err := tx.ListDevices(ctx)
		if err != nil {
			return err
		}

		acc.MaxDevices = tx.MaxDevices()
		now := c.now()
		count = len(devices)
		for i := range devices {
			if devices[i].DeviceID == deviceID {
				if err = tx.TouchDevice(ctx, deviceID, now); err != nil {
					return err
				}
				decision = md.SlotRenewed
				return nil
			}
		}

		if count >= acc.MaxDevices {
			decision = md.SlotRejected
			return nil
		}

		err = tx.CreateDevice(ctx, &md.Device{
			AccountID:  acc.ID,
			DeviceID:   deviceID,
			Name:       name,
			LastActive: now,
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}

		decision = md.SlotCreated
		count++
		return nil
	})
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return md.SlotRejected, 0, err
	}

	span.SetTag("slot", decision.String())
	return decision, count, nil
}

func (c *Controller) ListDevices(ctx context.Context, accountID uuid.UUID) ([]md.Device, error) {
	const op = "devices.ListDevices.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	res, err := c.repo.ListDevices(ctx, accountID)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, storeErr(err)
	}
	return res, nil
}

// DeleteDevice frees one slot of the account's quota.
func (c *Controller) DeleteDevice(ctx context.Context, accountID uuid.UUID, deviceID string) error {
	const op = "devices.DeleteDevice.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if err := c.repo.DeleteDevice(ctx, accountID, deviceID); err != nil {
		return storeErr(err)
	}

	c.cache.InvalidateKeysByPattern(ctx, accountsListPattern)
	return nil
}
