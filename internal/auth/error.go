package auth

import (
	"errors"
	"fmt"

	"github.com/JMURv/device-auth/internal/auth/jwt"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidToken        = jwt.ErrInvalidToken
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrAccountExpired      = errors.New("account has expired")
	ErrDeviceQuotaExceeded = errors.New("maximum devices reached")
	ErrPasswordTooLong     = bcrypt.ErrPasswordTooLong
)

// QuotaError is returned when a login from a new device would exceed the account quota.
type QuotaError struct {
	Quota int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("maximum devices (%d) reached", e.Quota)
}

func (e *QuotaError) Is(target error) bool {
	return target == ErrDeviceQuotaExceeded
}
