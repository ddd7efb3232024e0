package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/contractiq/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInMemoryRateLimiter_FixedWindow(t *testing.T) {
	rl := NewInMemoryRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2024, time.March, 20, 10, 0, 5, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	d, err := rl.Allow(ctx, "organization:a")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
	assert.Equal(t, time.Date(2024, time.March, 20, 10, 1, 0, 0, time.UTC), d.ResetAt)

	d, _ = rl.Allow(ctx, "organization:a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	d, _ = rl.Allow(ctx, "organization:a")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	// other tenants are counted separately
	d, _ = rl.Allow(ctx, "user:b")
	assert.True(t, d.Allowed)

	// next window resets the count
	now = now.Add(time.Minute)
	d, _ = rl.Allow(ctx, "organization:a")
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestInMemoryRateLimiter_EvictExpired(t *testing.T) {
	rl := NewInMemoryRateLimiter(5, time.Minute)
	defer rl.Stop()

	now := time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	_, _ = rl.Allow(context.Background(), "user:a")

	now = now.Add(2 * time.Minute)
	rl.evictExpired()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Empty(t, rl.counters)
}

func TestInMemoryRateLimiter_Concurrent(t *testing.T) {
	rl := NewInMemoryRateLimiter(50, time.Hour)
	defer rl.Stop()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, _ := rl.Allow(context.Background(), "organization:x")
			if d.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// a window boundary can fall inside the loop, allowing a second batch
	assert.GreaterOrEqual(t, allowed, 50)
	assert.LessOrEqual(t, allowed, 100)
}

func TestNewRateLimiter_FallsBackWithoutRedis(t *testing.T) {
	limiter, closer := NewRateLimiter(config.RedisConfig{}, 10, time.Minute, zaptest.NewLogger(t))
	defer closer.Close()

	_, ok := limiter.(*InMemoryRateLimiter)
	assert.True(t, ok)
}
