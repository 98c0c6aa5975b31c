package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const keyPrefix = "events:"

// RedisCache stores ranked similar-event IDs as JSON arrays
type RedisCache struct {
	rdb *redis.Client
	log *logrus.Entry
}

// NewRedisCache connects to the server at url and pings it
func NewRedisCache(ctx context.Context, url string, log *logrus.Entry) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return newRedisCache(ctx, redis.NewClient(opts), log)
}

func newRedisCache(ctx context.Context, rdb *redis.Client, log *logrus.Entry) (*RedisCache, error) {
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.WithField("addr", rdb.Options().Addr).Info("Connected to Redis")
	return &RedisCache{rdb: rdb, log: log}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	val, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}

	var ids []string
	if err := json.Unmarshal(val, &ids); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set
		c.log.WithError(err).WithField("key", key).Warn("Discarding unreadable cache entry")
		return nil, false, nil
	}
	return ids, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, ids []string, ttl time.Duration) error {
	if ids == nil {
		ids = []string{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	if err := c.rdb.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}

// Noop never stores anything; used when no Redis URL is configured
type Noop struct{}

func (Noop) Get(context.Context, string) ([]string, bool, error) { return nil, false, nil }

func (Noop) Set(context.Context, string, []string, time.Duration) error { return nil }
