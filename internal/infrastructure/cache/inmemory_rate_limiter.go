package cache

import (
	"context"
	"sync"
	"time"
)

// InMemoryRateLimiter is a fixed-window limiter local to this process.
// Limits are per instance, so N replicas allow N times the configured rate.
type InMemoryRateLimiter struct {
	mu       sync.Mutex
	counters map[string]*windowCounter
	limit    int
	window   time.Duration
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
}

type windowCounter struct {
	start time.Time
	count int64
}

// NewInMemoryRateLimiter creates a limiter and starts its cleanup loop.
// Call Stop to end the loop.
func NewInMemoryRateLimiter(limit int, window time.Duration) *InMemoryRateLimiter {
	rl := &InMemoryRateLimiter{
		counters: make(map[string]*windowCounter),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// Allow implements RateLimiter
func (rl *InMemoryRateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	start := windowStart(rl.now(), rl.window)
	c, ok := rl.counters[key]
	if !ok || !c.start.Equal(start) {
		c = &windowCounter{start: start}
		rl.counters[key] = c
	}
	c.count++
	return decide(c.count, rl.limit, start.Add(rl.window)), nil
}

// Stop ends the cleanup loop
func (rl *InMemoryRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *InMemoryRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window * 2)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.evictExpired()
		}
	}
}

func (rl *InMemoryRateLimiter) evictExpired() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	current := windowStart(rl.now(), rl.window)
	for key, c := range rl.counters {
		if c.start.Before(current) {
			delete(rl.counters, key)
		}
	}
}
