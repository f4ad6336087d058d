package config

import "errors"

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

var (
	ErrInvalidTokenTTL = errors.New("token ttl must be positive")
	ErrUnknownStorage  = errors.New("unknown storage driver")
)
