package config

import "time"

type ctxKey string

const (
	SessionKey ctxKey = "session"
	IpKey      ctxKey = "ip"
)

const ErrorSpanTag = "error"

const (
	DefaultPage      = 1
	DefaultSize      = 40
	DefaultCacheTime = time.Hour
)

const (
	// TokenDuration is the validity window of a session token.
	TokenDuration     = time.Hour * 24 * 7
	TokenType         = "bearer"
	DefaultActiveDays = 30
	DefaultMaxDevices = 3
	DefaultDeviceName = "Unknown Device"
)
