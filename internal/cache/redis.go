package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Jaiwincr7/rag-based-model/internal/router"
	"github.com/Jaiwincr7/rag-based-model/internal/types"
)

// DefaultKeyPrefix namespaces answer keys.
const DefaultKeyPrefix = "mitrerag:answer:"

const purgeBatch = 500

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0").
	URL string

	KeyPrefix      string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// RedisCache stores answers as JSON strings with a TTL.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects and pings the server.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 2 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 2 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, types.WrapError(ErrCodeCacheConfig, "failed to parse redis url", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, types.WrapError(ErrCodeCacheUnavailable, "failed to connect to redis", err)
	}

	return &RedisCache{client: client, prefix: opts.KeyPrefix}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (router.Answer, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return router.Answer{}, false, nil
	}
	if err != nil {
		return router.Answer{}, false, types.WrapError(ErrCodeCacheUnavailable, "redis get failed", err)
	}

	var ans router.Answer
	if err := json.Unmarshal(data, &ans); err != nil {
		return router.Answer{}, false, types.WrapError(ErrCodeCacheDecode, fmt.Sprintf("corrupt entry %s", key), err)
	}
	return ans, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, ans router.Answer, ttl time.Duration) error {
	data, err := json.Marshal(ans)
	if err != nil {
		return types.WrapError(ErrCodeCacheDecode, "failed to encode answer", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return types.WrapError(ErrCodeCacheUnavailable, "redis set failed", err)
	}
	return nil
}

// Purge unlinks every key under the prefix. Keys are found with SCAN so a
// large keyspace never blocks the server.
func (c *RedisCache) Purge(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, c.prefix+"*", purgeBatch).Result()
		if err != nil {
			return removed, types.WrapError(ErrCodeCacheUnavailable, "redis scan failed", err)
		}
		if len(keys) > 0 {
			n, err := c.client.Unlink(ctx, keys...).Result()
			if err != nil {
				return removed, types.WrapError(ErrCodeCacheUnavailable, "redis unlink failed", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}

func (c *RedisCache) Health(ctx context.Context) types.HealthStatus {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return types.Unhealthy(fmt.Sprintf("redis ping failed: %v", err))
	}
	return types.Healthy("redis reachable")
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
