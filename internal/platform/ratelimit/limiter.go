package ratelimit

import (
	"sync"
	"time"
)

// Limiter decides whether a keyed request may proceed. Keys are typically
// user IDs or client addresses.
type Limiter interface {
	Allow(key string) bool
}

// NopLimiter admits everything. Used when rate limiting is disabled.
type NopLimiter struct{}

func (NopLimiter) Allow(string) bool { return true }

type windowCounter struct {
	windowStart time.Time
	count       int
}

// FixedWindow counts requests per key inside a fixed interval and rejects
// once the limit is reached. Counters reset when their window rolls over.
type FixedWindow struct {
	mu       sync.Mutex
	counters map[string]windowCounter
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewFixedWindow(limit int, interval time.Duration) *FixedWindow {
	if limit <= 0 {
		limit = 60
	}
	if interval <= 0 {
		interval = time.Minute
	}

	return &FixedWindow{
		counters: make(map[string]windowCounter),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (l *FixedWindow) Allow(key string) bool {
	if key == "" {
		return true
	}

	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.counters[key]
	if !ok || now.Sub(c.windowStart) >= l.interval {
		l.counters[key] = windowCounter{windowStart: now, count: 1}
		l.sweepLocked(now)
		return true
	}

	if c.count >= l.limit {
		return false
	}

	c.count++
	l.counters[key] = c
	return true
}

// sweepLocked drops stale counters so the map does not grow with one entry
// per key ever seen. Called opportunistically while the lock is held.
func (l *FixedWindow) sweepLocked(now time.Time) {
	if len(l.counters) < 4096 {
		return
	}
	for key, c := range l.counters {
		if now.Sub(c.windowStart) >= l.interval {
			delete(l.counters, key)
		}
	}
}
