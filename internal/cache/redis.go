// Package cache is the key-value cache client used for sessions and queues.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/filesmanager/backend/internal/config"
	"github.com/filesmanager/backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
}

func New(cfg config.RedisConfig) *Cache {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
}

func NewWithClient(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Client exposes the underlying connection for components that share it.
func (c *Cache) Client() *redis.Client {
	return c.rdb
}

// Get returns the stored value and false when the key is absent or expired.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		logger.Error("cache_get_failed", err, map[string]interface{}{"key": redactKey(key)})
		return "", false, err
	}
	return val, true, nil
}

func (c *Cache) Set(ctx context.Context, key, value string, ttlSeconds int) error {
	var ttl time.Duration
	if ttlSeconds > 0 {
		ttl = time.Duration(ttlSeconds) * time.Second
	}
	err := c.rdb.Set(ctx, key, value, ttl).Err()
	if err != nil {
		logger.Error("cache_set_failed", err, map[string]interface{}{"key": redactKey(key)})
	}
	return err
}

// Del removes key and reports whether it existed.
func (c *Cache) Del(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Del(ctx, key).Result()
	if err != nil {
		logger.Error("cache_del_failed", err, map[string]interface{}{"key": redactKey(key)})
		return false, err
	}
	return n > 0, nil
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// IsAlive reports cache liveness for the status endpoint.
func (c *Cache) IsAlive(ctx context.Context) bool {
	return c.Ping(ctx) == nil
}

func (c *Cache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// redactKey keeps session tokens out of logs.
func redactKey(key string) string {
	if len(key) > 9 {
		return key[:9] + "..."
	}
	return key
}
