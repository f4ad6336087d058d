package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository keeps accounts and device slots in process memory. Device
// allocation for one account is serialized by a per-account mutex.
type Repository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*md.Account
	devices  map[uuid.UUID]map[string]*md.Device

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func New() *Repository {
	zap.L().Info("Using in-memory storage")
	return &Repository{
		accounts: make(map[uuid.UUID]*md.Account),
		devices:  make(map[uuid.UUID]map[string]*md.Device),
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

func (r *Repository) Close(context.Context) error {
	return nil
}

func (r *Repository) accountLock(id uuid.UUID) *sync.Mutex {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()

	l, ok := r.locks[id]
	if !ok {
		l = &sync.Mutex{}
		r.locks[id] = l
	}
	return l
}

func (r *Repository) WithAccountLock(
	ctx context.Context,
	accountID uuid.UUID,
	fn func(ctx context.Context, tx repo.DeviceTx) error,
) error {
	l := r.accountLock(accountID)
	l.Lock()
	defer l.Unlock()

	r.mu.RLock()
	acc, ok := r.accounts[accountID]
	var quota int
	if ok {
		quota = acc.MaxDevices
	}
	r.mu.RUnlock()
	if !ok {
		r.locksMu.Lock()
		delete(r.locks, accountID)
		r.locksMu.Unlock()
		return repo.ErrNotFound
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &deviceTx{r: r, accountID: accountID, quota: quota}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// deviceTx buffers writes and applies them on commit so an aborted
// allocation leaves no partial slot behind.
type deviceTx struct {
	r         *Repository
	accountID uuid.UUID
	quota     int
	created   []md.Device
	touched   map[string]time.Time
}

func (tx *deviceTx) MaxDevices() int {
	return tx.quota
}

func (tx *deviceTx) ListDevices(_ context.Context) ([]md.Device, error) {
	return append(tx.r.listDevices(tx.accountID), tx.created...), nil
}

func (tx *deviceTx) CreateDevice(_ context.Context, d *md.Device) error {
	tx.r.mu.RLock()
	_, exists := tx.r.devices[tx.accountID][d.DeviceID]
	tx.r.mu.RUnlock()
	if exists {
		return repo.ErrAlreadyExists
	}
	for _, c := range tx.created {
		if c.DeviceID == d.DeviceID {
			return repo.ErrAlreadyExists
		}
	}

	cp := *d
	cp.AccountID = tx.accountID
	tx.created = append(tx.created, cp)
	return nil
}

func (tx *deviceTx) TouchDevice(_ context.Context, deviceID string, at time.Time) error {
	tx.r.mu.RLock()
	_, exists := tx.r.devices[tx.accountID][deviceID]
	tx.r.mu.RUnlock()
	if !exists {
		return repo.ErrNotFound
	}

	if tx.touched == nil {
		tx.touched = make(map[string]time.Time)
	}
	tx.touched[deviceID] = at
	return nil
}

func (tx *deviceTx) commit() {
	tx.r.mu.Lock()
	defer tx.r.mu.Unlock()

	if _, ok := tx.r.accounts[tx.accountID]; !ok {
		return
	}

	slots, ok := tx.r.devices[tx.accountID]
	if !ok {
		slots = make(map[string]*md.Device)
		tx.r.devices[tx.accountID] = slots
	}

	for i := range tx.created {
		d := tx.created[i]
		slots[d.DeviceID] = &d
	}
	for id, at := range tx.touched {
		if d, ok := slots[id]; ok {
			d.LastActive = at
		}
	}
}

func (r *Repository) listDevices(accountID uuid.UUID) []md.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]md.Device, 0, len(r.devices[accountID]))
	for _, d := range r.devices[accountID] {
		res = append(res, *d)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].DeviceID < res[j].DeviceID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res
}
