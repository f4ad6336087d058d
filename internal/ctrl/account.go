package ctrl

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/dto"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type accountCtrl interface {
	ListAccounts(
		ctx context.Context,
		page, size int,
		filter repo.AccountFilter,
	) (*dto.PaginatedAccountResponse, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*dto.AccountStatus, error)
	CreateAccount(ctx context.Context, req *dto.CreateAccountRequest) (*dto.CreateAccountResponse, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, req *dto.UpdateAccountRequest) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type accountRepo interface {
	GetAccountByID(ctx context.Context, id uuid.UUID) (*md.Account, error)
	GetAccountByUsername(ctx context.Context, username string) (*md.Account, error)
	CreateAccount(ctx context.Context, a *md.Account) error
	UpdateAccount(ctx context.Context, a *md.Account) error
	SetPresence(ctx context.Context, id uuid.UUID, online bool) error
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	ListAccounts(
		ctx context.Context,
		page, size int,
		filter repo.AccountFilter,
	) ([]md.AccountSummary, int64, error)
}

const (
	accountsListKey     = "accounts-list:%d:%d:%s"
	accountsListPattern = "accounts-list:*"
)

func filterKey(f repo.AccountFilter) string {
	key := func(b *bool) string {
		if b == nil {
			return "-"
		}
		return fmt.Sprint(*b)
	}
	return fmt.Sprintf("%s:%s:%s", key(f.IsActive), key(f.IsOnline), f.Role)
}

func (c *Controller) ListAccounts(
	ctx context.Context,
	page, size int,
	filter repo.AccountFilter,
) (*dto.PaginatedAccountResponse, error) {
	const op = "accounts.ListAccounts.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if page < 1 {
		page = config.DefaultPage
	}
	if size < 1 {
		size = config.DefaultSize
	}

	cached := &dto.PaginatedAccountResponse{}
	cacheKey := fmt.Sprintf(accountsListKey, page, size, filterKey(filter))
	if err := c.cache.GetToStruct(ctx, cacheKey, cached); err == nil {
		return cached, nil
	}

	accounts, count, err := c.repo.ListAccounts(ctx, page, size, filter)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, storeErr(err)
	}

	data := make([]dto.AccountStatus, 0, len(accounts))
	for i := range accounts {
		data = append(data, dto.NewAccountStatus(&accounts[i].Account, accounts[i].CurrentDevices))
	}

	totalPages := int(math.Ceil(float64(count) / float64(size)))
	res := &dto.PaginatedAccountResponse{
		Data:        data,
		Count:       count,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasNextPage: page < totalPages,
	}

	bytes, err := json.Marshal(res)
	if err == nil {
		c.cache.Set(ctx, config.DefaultCacheTime, cacheKey, bytes)
	}

	return res, nil
}

func (c *Controller) GetAccount(ctx context.Context, id uuid.UUID) (*dto.AccountStatus, error) {
	const op = "accounts.GetAccount.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	acc, err := c.repo.GetAccountByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}

	count, err := c.repo.CountDevices(ctx, id)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, storeErr(err)
	}

	res := dto.NewAccountStatus(acc, count)
	return &res, nil
}

// CreateAccount provisions a standard user. Zero ActiveDays and MaxDevices
// fall back to the defaults.
func (c *Controller) CreateAccount(
	ctx context.Context,
	req *dto.CreateAccountRequest,
) (*dto.CreateAccountResponse, error) {
	const op = "accounts.CreateAccount.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	days := req.ActiveDays
	if days == 0 {
		days = config.DefaultActiveDays
	}

	quota := req.MaxDevices
	if quota == 0 {
		quota = config.DefaultMaxDevices
	}

	hash, err := c.au.Hash(req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrPasswordTooLong) {
			span.SetTag(config.ErrorSpanTag, true)
		}
		return nil, err
	}

	exp := c.now().AddDate(0, 0, days)
	acc := &md.Account{
		Username:   req.Username,
		Password:   hash,
		Role:       md.RoleUser,
		IsActive:   true,
		ExpiresAt:  &exp,
		MaxDevices: quota,
	}
	if err = c.repo.CreateAccount(ctx, acc); err != nil {
		if !errors.Is(err, repo.ErrAlreadyExists) {
			span.SetTag(config.ErrorSpanTag, true)
		}
		return nil, storeErr(err)
	}

	c.cache.InvalidateKeysByPattern(ctx, accountsListPattern)
	zap.L().Info("account created", zap.String("op", op), zap.String("account", acc.ID.String()))

	return &dto.CreateAccountResponse{
		ID:       acc.ID,
		Username: acc.Username,
	}, nil
}

func (c *Controller) UpdateAccount(ctx context.Context, id uuid.UUID, req *dto.UpdateAccountRequest) error {
	const op = "accounts.UpdateAccount.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	acc, err := c.repo.GetAccountByID(ctx, id)
	if err != nil {
		return storeErr(err)
	}

	if req.IsActive != nil {
		acc.IsActive = *req.IsActive
	}

	switch {
	case req.NoExpiry:
		acc.ExpiresAt = nil
	case req.ExpiresAt != nil:
		exp := req.ExpiresAt.UTC().Truncate(time.Second)
		acc.ExpiresAt = &exp
	}

	if req.MaxDevices != nil {
		acc.MaxDevices = *req.MaxDevices
	}

	if err = c.repo.UpdateAccount(ctx, acc); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return storeErr(err)
	}

	c.cache.InvalidateKeysByPattern(ctx, accountsListPattern)
	return nil
}

// DeleteAccount removes the account together with all of its device slots.
func (c *Controller) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	const op = "accounts.DeleteAccount.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if err := c.repo.DeleteAllDevices(ctx, id); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return storeErr(err)
	}

	if err := c.repo.DeleteAccount(ctx, id); err != nil {
		return storeErr(err)
	}

	c.cache.InvalidateKeysByPattern(ctx, accountsListPattern)
	return nil
}
