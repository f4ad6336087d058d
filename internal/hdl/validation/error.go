package validation

import "errors"

var ErrUsernameIsRequired = errors.New("username is required")
var ErrPasswordIsRequired = errors.New("password is required")
var ErrPasswordTooLong = errors.New("password must not exceed 72 bytes")
var ErrDeviceIsRequired = errors.New("device id is required")
var ErrConflictingExpiry = errors.New("expiresAt and noExpiry are mutually exclusive")
var ErrEmptyUpdate = errors.New("nothing to update")
