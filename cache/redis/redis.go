// Package redis provides a Redis-backed embedding cache.
//
//	c := redis.NewRedisCache(redis.RedisOptions{
//		Addr:   "localhost:6379",
//		Prefix: "simplerag:emb:",
//		TTL:    24 * time.Hour,
//	})
//	defer c.Close()
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smallnest/simplerag/cache"
)

// RedisCache stores encoded vectors as plain Redis strings.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "simplerag:embedding:"
	TTL      time.Duration // Expiration for entries, default 0 (no expiration)
}

// NewRedisCache creates a new Redis embedding cache
func NewRedisCache(opts RedisOptions) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewRedisCacheWithClient(client, opts.Prefix, opts.TTL)
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisCache {
	if prefix == "" {
		prefix = "simplerag:embedding:"
	}
	return &RedisCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

// Get returns the vector stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get embedding from redis: %w", err)
	}

	vec, err := cache.DecodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Set stores vec under key with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, vec []float32) error {
	if err := c.client.Set(ctx, c.key(key), cache.EncodeVector(vec), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save embedding to redis: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *RedisCache) Close() error {
	return c.client.Close()
}
