package cache

import (
	"context"
	"time"
)

// NoopCache is used when Redis is disabled. Every lookup misses.
type NoopCache struct{}

func NewNoopCache() CacheService {
	return NoopCache{}
}

func (NoopCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (NoopCache) Get(context.Context, string, interface{}) error { return ErrCacheMiss }

func (NoopCache) Delete(context.Context, string) error { return nil }

func (NoopCache) DeletePattern(context.Context, string) error { return nil }
