package redis

import (
	"context"
	"errors"
	"time"

	"github.com/JMURv/device-auth/internal/cache"
	"github.com/JMURv/device-auth/internal/config"
	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// scanBatch is the COUNT hint passed to SCAN during pattern invalidation.
const scanBatch = 100

type Redis struct {
	cli *redis.Client
}

func New(conf config.Config) *Redis {
	cli := redis.NewClient(
		&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Pass,
			DB:       0,
		},
	)

	if err := cli.Ping(context.Background()).Err(); err != nil {
		zap.L().Fatal("failed to connect to redis", zap.String("addr", conf.Redis.Addr), zap.Error(err))
	}

	return &Redis{cli: cli}
}

func (r *Redis) Close() error {
	return r.cli.Close()
}

func (r *Redis) GetToStruct(ctx context.Context, key string, dest any) error {
	const op = "cache.GetToStruct.redis"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	val, err := r.cli.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return cache.ErrNotFoundInCache
		}
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Debug("failed to get from cache", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return err
	}

	if err = json.Unmarshal(val, dest); err != nil {
		zap.L().Debug("failed to unmarshal cached value", zap.String("op", op), zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}

func (r *Redis) Set(ctx context.Context, t time.Duration, key string, val any) {
	const op = "cache.Set.redis"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if err := r.cli.Set(ctx, key, val, t).Err(); err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Debug("failed to set to cache", zap.String("op", op), zap.String("key", key), zap.Error(err))
	}
}

// InvalidateKeysByPattern removes every key matching pattern. SCAN is used
// instead of KEYS so a large keyspace does not block the server.
func (r *Redis) InvalidateKeysByPattern(ctx context.Context, pattern string) {
	const op = "cache.InvalidateKeysByPattern.redis"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	var cursor uint64
	for {
		keys, next, err := r.cli.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			span.SetTag(config.ErrorSpanTag, true)
			zap.L().Debug("failed to scan keys", zap.String("op", op), zap.String("pattern", pattern), zap.Error(err))
			return
		}

		if len(keys) > 0 {
			if err = r.cli.Del(ctx, keys...).Err(); err != nil {
				span.SetTag(config.ErrorSpanTag, true)
				zap.L().Debug("failed to delete keys", zap.String("op", op), zap.Error(err))
				return
			}
		}

		cursor = next
		if cursor == 0 {
			return
		}
	}
}
