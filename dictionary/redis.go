package dictionary

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"japanesedict/logger"
	"japanesedict/model"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis cache configuration
type RedisConfig struct {
	Addr     string        // Redis server address (e.g., "localhost:6379")
	Password string        // Redis password (if any)
	DB       int           // Redis database number
	Prefix   string        // Key prefix for namespacing
	TTL      time.Duration // Time-to-live for keys (0 means no expiration)
}

// DefaultRedisConfig returns default Redis cache configuration
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "jdict:lookup:",
		TTL:    24 * time.Hour,
	}
}

// RedisCache memoizes exact lookups in Redis so several processes share
// results. Redis failures are logged and the wrapped oracle answers instead.
type RedisCache struct {
	next   Oracle
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *slog.Logger
}

var _ Oracle = (*RedisCache)(nil)

// NewRedisCache wraps next with a Redis cache.
func NewRedisCache(next Oracle, config *RedisConfig) *RedisCache {
	if config == nil {
		config = DefaultRedisConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &RedisCache{
		next:   next,
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
		log:    logger.WithComponent("redis-cache"),
	}
}

// LookupExact serves from Redis, falling through to the wrapped oracle.
func (c *RedisCache) LookupExact(ctx context.Context, spans []string, limit int) ([]model.Entry, error) {
	key := c.prefix + cacheKey(spans, limit)
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var entries []model.Entry
		if err := json.Unmarshal(data, &entries); err == nil {
			return entries, nil
		}
		c.log.Warn("discarding undecodable cache value", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.Warn("redis get failed", "error", err)
	}

	entries, err := c.next.LookupExact(ctx, spans, limit)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(entries); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.Warn("redis set failed", "error", err)
		}
	}
	return entries, nil
}

// Ping checks if the Redis connection is alive
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
