package cache

import (
	"context"
	"time"
)

// Cache is the process-local cache capability injected into services.
// Implementations must be safe for concurrent use. Keys are company-scoped
// by the callers, so tenants cannot observe each other's entries.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
}

// GetOrSet returns the cached value for key, or runs producer, caches its
// result for ttl and returns it. Producer errors are returned uncached so a
// transient failure does not poison the entry.
func GetOrSet[T any](ctx context.Context, c Cache, key string, ttl time.Duration, producer func(ctx context.Context) (*T, error)) (*T, error) {
	if value, found := c.Get(ctx, key); found {
		if typed, ok := UnmarshalCacheValue[T](value); ok {
			return typed, nil
		}
		// Unreadable entry (e.g. serialization drift after deploy); drop it.
		c.Delete(ctx, key)
	}

	value, err := producer(ctx)
	if err != nil {
		return nil, err
	}

	c.Set(ctx, key, value, ttl)
	return value, nil
}
