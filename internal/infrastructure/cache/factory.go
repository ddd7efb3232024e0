package cache

import (
	"io"
	"time"

	"github.com/contractiq/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewRateLimiter picks the Redis limiter when Redis is configured and
// reachable, and the in-memory limiter otherwise. The returned closer
// releases the Redis connection or stops the in-memory cleanup loop.
func NewRateLimiter(cfg config.RedisConfig, limit int, window time.Duration, logger *zap.Logger) (RateLimiter, io.Closer) {
	if cfg.Host != "" {
		client, err := NewRedisClient(cfg)
		if err == nil {
			logger.Info("Using Redis rate limiter", zap.String("addr", cfg.Addr()))
			return NewRedisRateLimiter(client, limit, window), client
		}
		logger.Warn("Redis unavailable, falling back to in-memory rate limiter. "+
			"Limits will apply per instance.",
			zap.String("addr", cfg.Addr()),
			zap.Error(err),
		)
	}

	mem := NewInMemoryRateLimiter(limit, window)
	return mem, closerFunc(func() error {
		mem.Stop()
		return nil
	})
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
