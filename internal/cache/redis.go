package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"example.com/backstage/services/telematics/config"
	"example.com/backstage/services/telematics/internal/models"
)

// LatestSummaryKey always points at the most recent summary
const LatestSummaryKey = "telematics:summary:latest"

// client is the subset of *redis.Client used by the cache
type client interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisCache provides caching using Redis
type RedisCache struct {
	client  client
	ttl     time.Duration
	enabled bool
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	ttl, err := parseTTL(cfg.TTL)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return newRedisCache(rdb, ttl)
}

func newRedisCache(c client, ttl time.Duration) (*RedisCache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  c,
		ttl:     ttl,
		enabled: true,
	}, nil
}

func parseTTL(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	ttl, err := time.ParseDuration(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid redis ttl %q", raw)
	}
	return ttl, nil
}

// Enabled reports whether the cache is connected
func (c *RedisCache) Enabled() bool {
	return c.enabled
}

// Get retrieves a value from cache
func (c *RedisCache) Get(ctx context.Context, key string, value interface{}) error {
	if !c.enabled {
		return errors.New("cache is disabled")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return errors.Wrap(err, "key not found in cache")
		}
		return errors.Wrap(err, "failed to get value from Redis")
	}

	if err := json.Unmarshal(data, value); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached value")
	}
	return nil
}

// Set stores a value in cache with optional expiration
func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.enabled {
		return errors.New("cache is disabled")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal value for caching")
	}

	if err := c.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return errors.Wrap(err, "failed to set value in Redis")
	}
	return nil
}

// Name identifies the sink in logs
func (c *RedisCache) Name() string {
	return "redis"
}

// Publish stores the summary under its run key and as the latest snapshot
func (c *RedisCache) Publish(ctx context.Context, s *models.Summary) error {
	if err := c.Set(ctx, GetSummaryCacheKey(s.RunID), s, c.ttl); err != nil {
		return err
	}
	return c.Set(ctx, LatestSummaryKey, s, 0)
}

// Latest returns the most recently published summary
func (c *RedisCache) Latest(ctx context.Context) (*models.Summary, error) {
	var s models.Summary
	if err := c.Get(ctx, LatestSummaryKey, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSummaryCacheKey generates a cache key for one summary run
func GetSummaryCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("telematics:summary:%s", id.String())
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}
	return c.client.Close()
}
