package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"relay/internal/platform/config"
)

// Client is the shared session backend connection.
type Client struct {
	*redis.Client
}

// New dials Redis and pings it within the configured dial timeout.
// It returns a nil client and no error when no URL is configured.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return &Client{Client: client}, nil
}

// Health backs the redis entry of /health.
func (c *Client) Health(ctx context.Context) error {
	return c.Ping(ctx).Err()
}
