package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MetaCache is a Redis-backed side cache for fetched link metadata,
// keyed by URL. It is strictly an enrichment: callers treat misses and
// errors the same way.
type MetaCache struct {
	client *redis.Client
}

// NewMetaCache connects to Redis at addr ("host:port" or a redis URL).
func NewMetaCache(addr string) (*MetaCache, error) {
	var opt *redis.Options
	if parsed, err := redis.ParseURL(addr); err == nil {
		opt = parsed
	} else {
		opt = &redis.Options{Addr: addr}
	}
	opt.PoolSize = 10
	opt.MinIdleConns = 2

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &MetaCache{client: client}, nil
}

// Close closes the Redis connection.
func (c *MetaCache) Close() error {
	return c.client.Close()
}

// Get returns the cached value for key. A miss returns redis.Nil
// wrapped in the error.
func (c *MetaCache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("failed to get key: %w", err)
	}
	return val, nil
}

// Set stores value under key with the given TTL.
func (c *MetaCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}
