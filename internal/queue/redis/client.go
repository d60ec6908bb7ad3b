package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sitewatch/analytics-pipeline/internal/config"
	"github.com/sitewatch/analytics-pipeline/internal/queue"
)

// Client is a Redis-list queue client. Producers LPUSH onto a single
// shared key and consumers BRPOP from it, so entries come off in FIFO
// push order and each entry is delivered to at most one consumer.
type Client struct {
	rdb *redis.Client
	key string
	log *zap.Logger
}

// NewClient creates a new Redis queue client and verifies connectivity.
func NewClient(ctx context.Context, cfg config.Queue, log *zap.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr(),
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr(), err)
	}

	log.Info("Redis queue client created",
		zap.String("addr", cfg.Addr()),
		zap.String("key", cfg.Key))

	return &Client{rdb: rdb, key: cfg.Key, log: log}, nil
}

// Push appends one serialized event to the queue.
func (c *Client) Push(ctx context.Context, payload []byte) error {
	if err := c.rdb.LPush(ctx, c.key, payload).Err(); err != nil {
		return fmt.Errorf("failed to push to queue %s: %w", c.key, err)
	}
	return nil
}

// Pop blocks for at most timeout waiting for an entry. It returns
// queue.ErrEmpty when the timeout elapses with nothing available.
func (c *Client) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := c.rdb.BRPop(ctx, timeout, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, queue.ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop from queue %s: %w", c.key, err)
	}
	// BRPOP replies [key, value].
	return []byte(res[1]), nil
}

// Ping checks if the Redis connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}
