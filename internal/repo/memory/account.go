package memory

import (
	"context"
	"sort"
	"time"

	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/google/uuid"
)

func (r *Repository) GetAccountByID(_ context.Context, id uuid.UUID) (*md.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *Repository) GetAccountByUsername(_ context.Context, username string) (*md.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *Repository) CreateAccount(_ context.Context, a *md.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Username == a.Username {
			return repo.ErrAlreadyExists
		}
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if _, ok := r.accounts[a.ID]; ok {
		return repo.ErrAlreadyExists
	}

	now := time.Now()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	r.accounts[a.ID] = &cp
	return nil
}

func (r *Repository) UpdateAccount(_ context.Context, a *md.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.accounts[a.ID]
	if !ok {
		return repo.ErrNotFound
	}
	existing.IsActive = a.IsActive
	existing.ExpiresAt = a.ExpiresAt
	existing.MaxDevices = a.MaxDevices
	existing.UpdatedAt = time.Now()
	return nil
}

func (r *Repository) SetPresence(_ context.Context, id uuid.UUID, online bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return repo.ErrNotFound
	}
	a.IsOnline = online
	return nil
}

func (r *Repository) DeleteAccount(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.accounts, id)
	delete(r.devices, id)

	r.locksMu.Lock()
	delete(r.locks, id)
	r.locksMu.Unlock()
	return nil
}

func (r *Repository) ListAccounts(
	_ context.Context,
	page, size int,
	filter repo.AccountFilter,
) ([]md.AccountSummary, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]md.AccountSummary, 0, len(r.accounts))
	for _, a := range r.accounts {
		if filter.IsActive != nil && a.IsActive != *filter.IsActive {
			continue
		}
		if filter.IsOnline != nil && a.IsOnline != *filter.IsOnline {
			continue
		}
		if filter.Role != "" && a.Role != filter.Role {
			continue
		}
		matched = append(matched, md.AccountSummary{Account: *a, CurrentDevices: len(r.devices[a.ID])})
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Username < matched[j].Username
	})

	total := int64(len(matched))
	start := (page - 1) * size
	if start >= len(matched) {
		return []md.AccountSummary{}, total, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}
