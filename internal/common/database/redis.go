// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"review-sentiment/internal/common/config"

	"github.com/redis/go-redis/v9"
)

const (
	fallbackPoolSize    = 10
	fallbackDialTimeout = 5 * time.Second
)

// RedisClient owns the connection pool behind the redis cache backend.
type RedisClient struct {
	Client *redis.Client
	addr   string
}

// NewRedis opens a pool against cfg.Address. Nothing is dialed until the
// first command; app.Build pings before handing the client to the cache.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("database.redis.address is empty")
	}

	opts := &redis.Options{
		Addr:        cfg.Address,
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: config.GetDuration(cfg.DialTimeout),
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = fallbackPoolSize
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = fallbackDialTimeout
	}
	// Cache reads sit on the request path; they get no longer than a dial.
	opts.ReadTimeout = opts.DialTimeout
	opts.WriteTimeout = opts.DialTimeout

	return &RedisClient{Client: redis.NewClient(opts), addr: cfg.Address}, nil
}

// Ping doubles as the "redis" readiness check.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.addr, err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
