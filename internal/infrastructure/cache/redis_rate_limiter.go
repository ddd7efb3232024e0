package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/contractiq/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const defaultRateLimitPrefix = "ciq:ratelimit:"

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisRateLimiter is a fixed-window limiter shared by all instances.
// Each window gets its own key: INCR counts, EXPIRE removes it afterwards.
type RedisRateLimiter struct {
	client    redis.Cmdable
	keyPrefix string
	limit     int
	window    time.Duration
	now       func() time.Time
}

// NewRedisRateLimiter creates a limiter on an existing client
func NewRedisRateLimiter(client redis.Cmdable, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client:    client,
		keyPrefix: defaultRateLimitPrefix,
		limit:     limit,
		window:    window,
		now:       time.Now,
	}
}

// Allow implements RateLimiter
func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	start := windowStart(rl.now(), rl.window)
	redisKey := rl.keyPrefix + key + ":" + strconv.FormatInt(start.Unix(), 10)

	var incr *redis.IntCmd
	_, err := rl.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, rl.window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return decide(incr.Val(), rl.limit, start.Add(rl.window)), nil
}
