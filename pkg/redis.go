package pkg

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/neurosense/assessment-service/internal/cache"
	"github.com/neurosense/assessment-service/internal/config"
)

const cachePrefix = "neurosense:"

func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return client, nil
}

// NewCacheService returns a Redis-backed cache when REDIS_ENABLED is set and
// a no-op cache otherwise. The returned close func is never nil.
func NewCacheService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.CacheService, func() error, error) {
	if !cfg.RedisEnabled {
		logger.Info("Redis disabled, caching turned off")
		return cache.NewNoopCache(), func() error { return nil }, nil
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("Connected to Redis", "addr", client.Options().Addr)
	return cache.NewRedisCache(client, cachePrefix, logger), client.Close, nil
}
