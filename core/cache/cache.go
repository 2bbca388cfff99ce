package cache

import (
	"context"
	"time"

	"bookline-api/core/config"
	"bookline-api/core/constants"
	"bookline-api/core/logger"

	"github.com/redis/go-redis/v9"
)

type Cache interface {
	AddToTokenBlacklist(ctx context.Context, token string) error
	IsTokenBlacklisted(ctx context.Context, token string) (bool, error)
	IncrementLoginAttempt(ctx context.Context, key string) error
	IsLoginBlocked(ctx context.Context, key string) (bool, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

type redisCache struct {
	client *redis.Client
}

func NewCache(cfg *config.Config) Cache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return &redisCache{client: client}
}

func (c *redisCache) AddToTokenBlacklist(ctx context.Context, token string) error {
	key := constants.RedisKeyTokenBlacklist + token
	return c.client.Set(ctx, key, "1", constants.RefreshTokenTTL).Err()
}

func (c *redisCache) IsTokenBlacklisted(ctx context.Context, token string) (bool, error) {
	key := constants.RedisKeyTokenBlacklist + token
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		logger.Error("Cache:IsTokenBlacklisted:Error", "error", err)
		return false, err
	}
	return n > 0, nil
}

func (c *redisCache) IncrementLoginAttempt(ctx context.Context, key string) error {
	attemptKey := constants.RedisKeyLoginAttempt + key
	n, err := c.client.Incr(ctx, attemptKey).Result()
	if err != nil {
		return err
	}
	if n == 1 {
		return c.client.Expire(ctx, attemptKey, constants.BlockDuration).Err()
	}
	return nil
}

func (c *redisCache) IsLoginBlocked(ctx context.Context, key string) (bool, error) {
	attemptKey := constants.RedisKeyLoginAttempt + key
	n, err := c.client.Get(ctx, attemptKey).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return n >= constants.MaxLoginAttempts, nil
}

func (c *redisCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.client.Expire(ctx, constants.RedisKeyLoginAttempt+key, ttl).Err()
}

func (c *redisCache) Del(ctx context.Context, key string) error {
	return c.client.Del(ctx, constants.RedisKeyLoginAttempt+key).Err()
}

func (c *redisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
