package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oleandersen/pickup-orders/internal/config"
	"github.com/oleandersen/pickup-orders/internal/interfaces"
)

const (
	countdownKeyPrefix = "pickup:countdown:"
	readyKeyPrefix     = "pickup:ready:"

	// Countdown entries outlive one tick by a few seconds only, so values
	// for dead timers expire on their own.
	countdownTTL = 5 * time.Second
	readyTTL     = 24 * time.Hour
)

// CountdownCache keeps the per-order "time remaining" snapshots and ready
// flags in Redis, where any dashboard instance can poll them.
type CountdownCache struct {
	client *redis.Client
}

func NewCountdownCache(ctx context.Context, cfg config.RedisConfig) (*CountdownCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &CountdownCache{client: client}, nil
}

var _ interfaces.CountdownCache = (*CountdownCache)(nil)

func (c *CountdownCache) SetRemaining(ctx context.Context, orderID, purpose string, remaining time.Duration) error {
	key := countdownKey(orderID, purpose)
	seconds := int64(remaining.Seconds())
	return c.client.Set(ctx, key, seconds, countdownTTL).Err()
}

func (c *CountdownCache) GetRemaining(ctx context.Context, orderID, purpose string) (time.Duration, bool, error) {
	seconds, err := c.client.Get(ctx, countdownKey(orderID, purpose)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return time.Duration(seconds) * time.Second, true, nil
}

func (c *CountdownCache) MarkReady(ctx context.Context, orderID string) error {
	return c.client.Set(ctx, readyKeyPrefix+orderID, 1, readyTTL).Err()
}

func (c *CountdownCache) IsReady(ctx context.Context, orderID string) (bool, error) {
	n, err := c.client.Exists(ctx, readyKeyPrefix+orderID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *CountdownCache) Clear(ctx context.Context, orderID string) error {
	keys := []string{
		countdownKey(orderID, "auto_cancel"),
		countdownKey(orderID, "prep_ready"),
		readyKeyPrefix + orderID,
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *CountdownCache) Close() error {
	return c.client.Close()
}

func countdownKey(orderID, purpose string) string {
	return countdownKeyPrefix + orderID + ":" + purpose
}
