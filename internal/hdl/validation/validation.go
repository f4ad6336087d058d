package validation

import (
	"strings"

	"github.com/JMURv/device-auth/internal/auth"
	"github.com/JMURv/device-auth/internal/dto"
)

// LoginRequest trims identifiers in place and rejects blank ones.
func LoginRequest(req *dto.LoginRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	req.DeviceName = strings.TrimSpace(req.DeviceName)

	if req.Username == "" {
		return ErrUsernameIsRequired
	}

	if req.Password == "" {
		return ErrPasswordIsRequired
	}

	if req.DeviceID == "" {
		return ErrDeviceIsRequired
	}
	return nil
}

func CreateAccountRequest(req *dto.CreateAccountRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		return ErrUsernameIsRequired
	}

	if req.Password == "" {
		return ErrPasswordIsRequired
	}

	if len(req.Password) > auth.MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func UpdateAccountRequest(req *dto.UpdateAccountRequest) error {
	if req.NoExpiry && req.ExpiresAt != nil {
		return ErrConflictingExpiry
	}

	if req.IsActive == nil && req.ExpiresAt == nil && !req.NoExpiry && req.MaxDevices == nil {
		return ErrEmptyUpdate
	}
	return nil
}
