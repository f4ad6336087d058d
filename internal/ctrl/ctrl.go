package ctrl

import (
	"context"
	"io"
	"time"

	"github.com/JMURv/device-auth/internal/auth"
)

//go:generate mockgen -destination=../../tests/mocks/mock_ctrl.go -package=mocks . AppCtrl,AppRepo,CacheService,Mailer

type AppRepo interface {
	accountRepo
	deviceRepo
}

type AppCtrl interface {
	authCtrl
	deviceCtrl
	accountCtrl
}

type CacheService interface {
	io.Closer
	GetToStruct(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, t time.Duration, key string, val any)
	InvalidateKeysByPattern(ctx context.Context, pattern string)
}

type Mailer interface {
	Enabled() bool
	SendQuotaExceeded(ctx context.Context, username, deviceID, deviceName string, quota int) error
}

type Option func(*Controller)

// WithClock replaces the wall clock used for expiry checks and slot timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithRecheck controls whether ResolveSession re-validates the active flag
// and expiry of the account behind a token.
func WithRecheck(recheck bool) Option {
	return func(c *Controller) {
		c.recheck = recheck
	}
}

type Controller struct {
	au      auth.Core
	repo    AppRepo
	cache   CacheService
	mailer  Mailer
	now     func() time.Time
	recheck bool
}

func New(au auth.Core, repo AppRepo, cache CacheService, mailer Mailer, opts ...Option) *Controller {
	c := &Controller{
		au:      au,
		repo:    repo,
		cache:   cache,
		mailer:  mailer,
		now:     time.Now,
		recheck: true,
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}
