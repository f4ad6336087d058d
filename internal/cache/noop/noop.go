// Package noop provides a cache that never stores anything. It backs the
// controller when no Redis address is configured.
package noop

import (
	"context"
	"time"

	"github.com/JMURv/device-auth/internal/cache"
)

type Cache struct{}

func New() Cache {
	return Cache{}
}

func (Cache) Close() error {
	return nil
}

func (Cache) GetToStruct(context.Context, string, any) error {
	return cache.ErrNotFoundInCache
}

func (Cache) Set(context.Context, time.Duration, string, any) {}

func (Cache) InvalidateKeysByPattern(context.Context, string) {}
