package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"controlia/internal/config"
)

// Client wraps the Redis connection. It mirrors the monthly usage
// counters for cheap dashboard reads; the database row stays
// authoritative. A nil *Client is valid and degrades to no-ops, so the
// service runs without Redis.
type Client struct {
	rdb    *redis.Client
	logger *logrus.Logger
}

// NewClient creates a Redis client and verifies connectivity
func NewClient(cfg config.RedisConfig, logger *logrus.Logger) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.WithField("addr", rdb.Options().Addr).Info("Connected to Redis")
	return &Client{rdb: rdb, logger: logger}, nil
}

func usageKey(tenantID uuid.UUID, month string) string {
	return fmt.Sprintf("uso:%s:%s", tenantID, month)
}

// MirrorUsage adds to the tenant's monthly message counter mirror.
// Best effort: errors are logged, never returned.
func (c *Client) MirrorUsage(ctx context.Context, tenantID uuid.UUID, month string, messages int) {
	if c == nil {
		return
	}
	key := usageKey(tenantID, month)
	pipe := c.rdb.Pipeline()
	pipe.IncrBy(ctx, key, int64(messages))
	// Two billing cycles is plenty; the DB keeps full history.
	pipe.Expire(ctx, key, 62*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to mirror usage counter")
	}
}

// GetMessageCount reads the mirrored counter. Returns ok=false when
// Redis is unavailable or the key is absent.
func (c *Client) GetMessageCount(ctx context.Context, tenantID uuid.UUID, month string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	count, err := c.rdb.Get(ctx, usageKey(tenantID, month)).Int64()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Failed to read usage counter mirror")
		}
		return 0, false
	}
	return count, true
}

// HealthCheck pings Redis
func (c *Client) HealthCheck(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("redis not configured")
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the connection
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
