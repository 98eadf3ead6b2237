package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/cache"
	"github.com/fleetdocs/backend/internal/metrics"
	"github.com/fleetdocs/backend/pkg/logger"
)

const (
	summaryPrefix    = "summary:"
	extractionPrefix = "extraction:"
)

type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(ctx context.Context, host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.Duration("ttl", ttl),
	)

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) get(ctx context.Context, key, cacheType string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMisses.WithLabelValues(cacheType).Inc()
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s cache: %w", cacheType, err)
	}

	metrics.CacheHits.WithLabelValues(cacheType).Inc()
	logger.Debug("Cache hit", zap.String("cache_type", cacheType), zap.String("key", key))
	return val, true, nil
}

func (c *Client) set(ctx context.Context, key, value, cacheType string) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s cache: %w", cacheType, err)
	}
	logger.Debug("Cached", zap.String("cache_type", cacheType), zap.String("key", key), zap.Duration("ttl", c.ttl))
	return nil
}

func (c *Client) GetSummary(ctx context.Context, fileHash string) (string, bool, error) {
	return c.get(ctx, summaryPrefix+fileHash, "summary")
}

func (c *Client) SetSummary(ctx context.Context, fileHash, summary string) error {
	return c.set(ctx, summaryPrefix+fileHash, summary, "summary")
}

func (c *Client) GetExtraction(ctx context.Context, key string) (string, bool, error) {
	return c.get(ctx, extractionPrefix+key, "extraction")
}

func (c *Client) SetExtraction(ctx context.Context, key, raw string) error {
	return c.set(ctx, extractionPrefix+key, raw, "extraction")
}

// InvalidateExtractions drops cached LLM responses, e.g. after a prompt or
// model change.
func (c *Client) InvalidateExtractions(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, extractionPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Extraction cache invalidated")
	return nil
}

var _ cache.Cache = (*Client)(nil)
