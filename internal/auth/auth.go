package auth

import (
	"context"
	"time"

	"github.com/JMURv/device-auth/internal/auth/captcha"
	"github.com/JMURv/device-auth/internal/auth/jwt"
	"github.com/JMURv/device-auth/internal/config"
	md "github.com/JMURv/device-auth/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// decoyPassword is hashed once at startup so that lookups of unknown usernames
// spend the same bcrypt work as a real comparison.
const decoyPassword = "decoy-password-that-never-matches"

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

type Core interface {
	jwt.Port
	captcha.Port
	Hash(pswd string) (string, error)
	Compare(hashed, pswd string) bool
	Decoy(pswd string)
}

type Auth struct {
	tokens  *jwt.Core
	captcha *captcha.Core
	cost    int
	decoy   []byte
}

func New(conf config.Config, opts ...jwt.Option) *Auth {
	cost := conf.Auth.BcryptCost
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}

	decoy, err := bcrypt.GenerateFromPassword([]byte(decoyPassword), cost)
	if err != nil {
		zap.L().Fatal("failed to prepare decoy hash", zap.Error(err))
	}

	return &Auth{
		tokens:  jwt.New(conf, opts...),
		captcha: captcha.New(conf),
		cost:    cost,
		decoy:   decoy,
	}
}

// Hash returns a salted bcrypt digest; two calls on the same input differ.
func (a *Auth) Hash(pswd string) (string, error) {
	if len(pswd) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(pswd), a.cost)
	return string(bytes), err
}

// Compare reports whether pswd matches hashed. A mismatch is not an error.
func (a *Auth) Compare(hashed, pswd string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pswd)) == nil
}

func (a *Auth) Decoy(pswd string) {
	_ = bcrypt.CompareHashAndPassword(a.decoy, []byte(pswd))
}

func (a *Auth) NewToken(ctx context.Context, uid uuid.UUID, role md.Role) (string, time.Time, error) {
	return a.tokens.NewToken(ctx, uid, role)
}

func (a *Auth) ParseClaims(ctx context.Context, tokenStr string) (jwt.Claims, error) {
	return a.tokens.ParseClaims(ctx, tokenStr)
}

func (a *Auth) VerifyRecaptcha(ctx context.Context, token string, action captcha.Actions) (bool, error) {
	return a.captcha.VerifyRecaptcha(ctx, token, action)
}
