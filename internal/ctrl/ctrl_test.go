package ctrl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/auth/jwt"
	"github.com/JMURv/device-auth/internal/cache/noop"
	"github.com/JMURv/device-auth/internal/config"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo/memory"
	"github.com/stretchr/testify/require"
)

const testPassword = "correct-horse"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWT: config.JWTConfig{
				Secret: "test-secret",
				Issuer: "test",
				TTL:    config.TokenDuration,
			},
			BcryptCost: 4,
		},
	}
}

type testEnv struct {
	ctrl  *Controller
	repo  *memory.Repository
	au    *auth.Auth
	clock *fakeClock
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	t.Helper()

	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	au := auth.New(testConfig(), jwt.WithClock(clock.Now))
	r := memory.New()

	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return &testEnv{
		ctrl:  New(au, r, noop.New(), nil, opts...),
		repo:  r,
		au:    au,
		clock: clock,
	}
}

func (e *testEnv) seed(t *testing.T, username string, quota int, mutate ...func(a *md.Account)) *md.Account {
	t.Helper()

	hash, err := e.au.Hash(testPassword)
	require.NoError(t, err)

	exp := e.clock.Now().Add(30 * 24 * time.Hour)
	a := &md.Account{
		Username:   username,
		Password:   hash,
		Role:       md.RoleUser,
		IsActive:   true,
		ExpiresAt:  &exp,
		MaxDevices: quota,
	}
	for _, fn := range mutate {
		fn(a)
	}

	require.NoError(t, e.repo.CreateAccount(context.Background(), a))
	return a
}
