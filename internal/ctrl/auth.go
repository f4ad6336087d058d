package ctrl

import (
	"context"
	"errors"
	"time"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/auth/captcha"
	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/dto"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/JMURv/device-auth/internal/repo"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

const notifyTimeout = 30 * time.Second

type authCtrl interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.Session, error)
	Logout(ctx context.Context, token string) error
	ResolveSession(ctx context.Context, token string) (*dto.AccountContext, error)
	Me(ctx context.Context, uid uuid.UUID) (*dto.AccountStatus, error)
	EnsureAdmin(ctx context.Context, username, password string, quota int) error
}

// Login authenticates the credentials, admits the device into one of the
// account's slots and issues a session token. Unknown usernames and wrong
// passwords both yield auth.ErrInvalidCredentials.
func (c *Controller) Login(ctx context.Context, req *dto.LoginRequest) (*dto.Session, error) {
	const op = "auth.Login.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	ok, err := c.au.VerifyRecaptcha(ctx, req.Captcha, captcha.PassAuth)
	if err != nil || !ok {
		return nil, ErrCaptchaFailed
	}

	acc, err := c.repo.GetAccountByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.au.Decoy(req.Password)
			return nil, auth.ErrInvalidCredentials
		}
		span.SetTag(config.ErrorSpanTag, true)
		return nil, storeErr(err)
	}

	if !c.au.Compare(acc.Password, req.Password) {
		return nil, auth.ErrInvalidCredentials
	}

	if !acc.IsActive {
		return nil, auth.ErrAccountDisabled
	}

	if acc.Expired(c.now()) {
		return nil, auth.ErrAccountExpired
	}

	name := req.DeviceName
	if name == "" {
		name = config.DefaultDeviceName
	}

	decision, devices, err := c.allocateSlot(ctx, acc, req.DeviceID, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		span.SetTag(config.ErrorSpanTag, true)
		return nil, storeErr(err)
	}

	if !decision.Admitted() {
		zap.L().Info(
			"device quota reached",
			zap.String("op", op),
			zap.String("account", acc.ID.String()),
			zap.String("device", req.DeviceID),
			zap.Int("quota", acc.MaxDevices),
		)
		c.notifyQuota(ctx, acc, req.DeviceID, name)
		return nil, &auth.QuotaError{Quota: acc.MaxDevices}
	}

	if err = c.repo.SetPresence(ctx, acc.ID, true); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, storeErr(err)
	}
	acc.IsOnline = true
	c.cache.InvalidateKeysByPattern(ctx, accountsListPattern)

	token, exp, err := c.au.NewToken(ctx, acc.ID, acc.Role)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return nil, err
	}

	zap.L().Info(
		"login admitted",
		zap.String("op", op),
		zap.String("account", acc.ID.String()),
		zap.String("device", req.DeviceID),
		zap.Stringer("slot", decision),
	)

	return &dto.Session{
		Token:     token,
		TokenType: config.TokenType,
		ExpiresAt: exp,
		Account:   dto.NewAccountStatus(acc, devices),
	}, nil
}

// Logout clears the presence flag of the token's account. The token itself
// stays valid until it expires.
func (c *Controller) Logout(ctx context.Context, token string) error {
	const op = "auth.Logout.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	claims, err := c.au.ParseClaims(ctx, token)
	if err != nil {
		return auth.ErrInvalidToken
	}

	if err = c.repo.SetPresence(ctx, claims.UID, false); err != nil && !errors.Is(err, repo.ErrNotFound) {
		span.SetTag(config.ErrorSpanTag, true)
		return storeErr(err)
	}
	c.cache.InvalidateKeysByPattern(ctx, accountsListPattern)

	return nil
}

// ResolveSession validates token and loads the account fresh from the store,
// so the returned role reflects the current administrative state.
func (c *Controller) ResolveSession(ctx context.Context, token string) (*dto.AccountContext, error) {
	const op = "auth.ResolveSession.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	claims, err := c.au.ParseClaims(ctx, token)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}

	acc, err := c.repo.GetAccountByID(ctx, claims.UID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, auth.ErrInvalidToken
		}
		span.SetTag(config.ErrorSpanTag, true)
		return nil, storeErr(err)
	}

	if c.recheck {
		if !acc.IsActive {
			return nil, auth.ErrAccountDisabled
		}
		if acc.Expired(c.now()) {
			return nil, auth.ErrAccountExpired
		}
	}

	return &dto.AccountContext{
		ID:       acc.ID,
		Username: acc.Username,
		Role:     acc.Role,
	}, nil
}

func (c *Controller) Me(ctx context.Context, uid uuid.UUID) (*dto.AccountStatus, error) {
	const op = "auth.Me.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	return c.GetAccount(ctx, uid)
}

// EnsureAdmin creates the bootstrap admin account unless an account with
// that username already exists.
func (c *Controller) EnsureAdmin(ctx context.Context, username, password string, quota int) error {
	const op = "auth.EnsureAdmin.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	_, err := c.repo.GetAccountByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		span.SetTag(config.ErrorSpanTag, true)
		return storeErr(err)
	}

	if password == "" {
		zap.L().Warn("admin account missing and no admin password configured", zap.String("username", username))
		return nil
	}

	hash, err := c.au.Hash(password)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return err
	}

	err = c.repo.CreateAccount(ctx, &md.Account{
		Username:   username,
		Password:   hash,
		Role:       md.RoleAdmin,
		IsActive:   true,
		MaxDevices: quota,
	})
	if err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return nil
		}
		span.SetTag(config.ErrorSpanTag, true)
		return storeErr(err)
	}

	zap.L().Info("admin account created", zap.String("username", username))
	return nil
}

func (c *Controller) notifyQuota(ctx context.Context, acc *md.Account, deviceID, deviceName string) {
	if c.mailer == nil || !c.mailer.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		if err := c.mailer.SendQuotaExceeded(ctx, acc.Username, deviceID, deviceName, acc.MaxDevices); err != nil {
			zap.L().Error(
				"failed to send quota notice",
				zap.String("account", acc.ID.String()),
				zap.Error(err),
			)
		}
	}()
}
