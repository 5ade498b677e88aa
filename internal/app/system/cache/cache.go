// Package cache is a thin, optional Redis layer for read-heavy lookups
// such as the interest catalog and radar candidate lists. A nil *Cache is
// valid and turns every operation into a no-op miss, so handlers do not
// branch on whether Redis was configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ErrMiss is returned when the key is absent or caching is disabled.
var ErrMiss = errors.New("cache: miss")

type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// New connects to redisURL and pings the server. An empty URL returns
// (nil, nil): caching disabled.
func New(ctx context.Context, redisURL string, logger *zap.Logger) (*Cache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	logger.Info("redis cache connected", zap.String("addr", opt.Addr))
	return &Cache{client: client, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// GetJSON loads key and unmarshals it into dest. Returns ErrMiss when the
// key is absent or the cache is disabled.
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if c == nil || c.client == nil {
		return ErrMiss
	}
	raw, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

// SetJSON marshals value and stores it under key with the given TTL.
// Failures are logged and swallowed; the cache is best-effort.
func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes keys. Safe on a nil cache.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || c.client == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
