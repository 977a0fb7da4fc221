package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tradeflowhq/tradeflow/internal/config"
	"github.com/tradeflowhq/tradeflow/internal/logger"
)

const scanCount = 100

// RedisCache implements Cache on a Redis backend. Values are stored as JSON
// strings; UnmarshalCacheValue on the read side handles the conversion.
type RedisCache struct {
	client  *redis.Client
	log     *logger.Logger
	enabled bool
}

func NewRedisCache(cfg *config.Configuration, log *logger.Logger) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &RedisCache{client: client, log: log, enabled: cfg.Cache.Enabled}
}

func (c *RedisCache) Get(ctx context.Context, key string) (interface{}, bool) {
	if !c.enabled {
		return nil, false
	}

	span := StartCacheSpan(ctx, "redis", "get", map[string]interface{}{"key": key})
	defer FinishSpan(span)

	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Errorw("redis GET failed", "key", key, "error", err)
		}
		return nil, false
	}
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) {
	if !c.enabled {
		return
	}

	span := StartCacheSpan(ctx, "redis", "set", map[string]interface{}{"key": key})
	defer FinishSpan(span)

	if expiration == 0 {
		expiration = ExpiryDefaultRedis
	}

	var strValue string
	switch v := value.(type) {
	case string:
		strValue = v
	default:
		jsonBytes, err := json.Marshal(value)
		if err != nil {
			c.log.Errorw("failed to marshal cache value", "key", key, "error", err)
			return
		}
		strValue = string(jsonBytes)
	}

	if err := c.client.Set(ctx, key, strValue, expiration).Err(); err != nil {
		c.log.Errorw("redis SET failed", "key", key, "error", err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.Errorw("redis DEL failed", "key", key, "error", err)
	}
}

func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) {
	iter := c.client.Scan(ctx, 0, prefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		c.Delete(ctx, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.log.Errorw("redis SCAN failed", "prefix", prefix, "error", err)
	}
}
