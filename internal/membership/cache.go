// Package membership provides the Membership Cache (component C): a
// write-through cache over per-user tenant membership, per-tenant existence,
// and Belonging Oracle lookups, so the proxy pipeline can avoid a database or
// upstream round trip on every request.
package membership

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key is absent.
var ErrCacheMiss = errors.New("membership: cache miss")

// Cache is the storage backend behind the Membership Cache. A NoopCache
// satisfies it when caching is disabled, mirroring the original's
// CACHE_ENABLE=false no-op mode.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NoopCache never stores anything; every Get misses.
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string, dest any) error { return ErrCacheMiss }
func (NoopCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return nil
}
func (NoopCache) Delete(ctx context.Context, key string) error { return nil }

// RedisCache stores JSON-encoded values in Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an already-constructed client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get decodes the stored JSON value for key into dest.
func (c *RedisCache) Get(ctx context.Context, key string, dest any) error {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// Set JSON-encodes value and stores it under key with the given TTL. A zero
// TTL means no expiry.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}

// Delete removes key, if present.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
