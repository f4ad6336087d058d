package ctrl

import (
	"errors"
	"fmt"

	"github.com/JMURv/device-auth/internal/repo"
)

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a resource already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrStoreUnavailable wraps backing store failures. It is the only
	// failure a caller may retry.
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrCaptchaFailed    = errors.New("captcha verification failed")
)

func storeErr(err error) error {
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repo.ErrAlreadyExists):
		return ErrAlreadyExists
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}
