package jwt

import (
	"context"
	"time"

	"github.com/JMURv/device-auth/internal/config"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type Port interface {
	NewToken(ctx context.Context, uid uuid.UUID, role md.Role) (string, time.Time, error)
	ParseClaims(ctx context.Context, tokenStr string) (Claims, error)
}

// Core issues and validates HS256 session tokens. Expiry is checked against
// the wall clock returned by now, without leeway for clock skew.
type Core struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Core)

func WithClock(now func() time.Time) Option {
	return func(c *Core) {
		c.now = now
	}
}

type Claims struct {
	UID  uuid.UUID `json:"uid"`
	Role md.Role   `json:"role"`
	jwt.RegisteredClaims
}

func New(conf config.Config, opts ...Option) *Core {
	ttl := conf.Auth.JWT.TTL
	if ttl <= 0 {
		ttl = config.TokenDuration
	}

	c := &Core{
		secret: []byte(conf.Auth.JWT.Secret),
		issuer: conf.Auth.JWT.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Core) NewToken(ctx context.Context, uid uuid.UUID, role md.Role) (string, time.Time, error) {
	const op = "auth.NewToken.jwt"
	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	now := c.now()
	exp := now.Add(c.ttl)
	signed, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256, &Claims{
			UID:  uid,
			Role: role,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uid.String(),
				ExpiresAt: jwt.NewNumericDate(exp),
				IssuedAt:  jwt.NewNumericDate(now),
				Issuer:    c.issuer,
			},
		},
	).SignedString(c.secret)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error(
			ErrWhileCreatingToken.Error(),
			zap.String("op", op),
			zap.String("uid", uid.String()),
			zap.Error(err),
		)

		return "", time.Time{}, ErrWhileCreatingToken
	}

	return signed, exp, nil
}

// ParseClaims verifies signature, algorithm, issuer and expiry. Every failure
// collapses into ErrInvalidToken.
func (c *Core) ParseClaims(ctx context.Context, tokenStr string) (Claims, error) {
	const op = "auth.ParseClaims.jwt"
	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	claims := Claims{}
	token, err := jwt.ParseWithClaims(
		tokenStr, &claims, func(token *jwt.Token) (any, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, ErrUnexpectedSignMethod
			}

			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(c.issuer),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		zap.L().Debug(
			"Failed to parse claims",
			zap.String("op", op),
			zap.Error(err),
		)

		return Claims{}, ErrInvalidToken
	}

	if !token.Valid || claims.UID == uuid.Nil || !claims.Role.Valid() {
		zap.L().Debug(
			"Token is invalid",
			zap.String("op", op),
			zap.String("uid", claims.UID.String()),
		)

		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
