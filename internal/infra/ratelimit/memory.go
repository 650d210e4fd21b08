package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"todod/internal/domain"
)

var ErrCapacityExceeded = errors.New("rate limiter capacity exceeded")

type counter struct {
	slot slot
	hits int64
}

// MemoryLimiter keeps one counter per key for the current window. It is
// process local; use the Redis limiter when several replicas share a budget.
type MemoryLimiter struct {
	mu       sync.Mutex
	now      func() time.Time
	counters map[string]*counter
	maxKeys  int
}

type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
}

func NewMemoryLimiter(cfg MemoryLimiterConfig) *MemoryLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &MemoryLimiter{
		now:      cfg.Now,
		counters: make(map[string]*counter),
		maxKeys:  cfg.MaxKeys,
	}
}

func (m *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return unlimited(limit), nil
	}
	now := m.now()
	current := slotAt(now, window)

	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.counters[key]
	if !ok {
		if len(m.counters) >= m.maxKeys && m.sweep(now) == 0 {
			return domain.RateLimitDecision{}, ErrCapacityExceeded
		}
		c = &counter{}
		m.counters[key] = c
	}
	if c.slot.index != current.index {
		c.slot, c.hits = current, 0
	}
	// Rejected hits are not counted, so the window drains on schedule.
	if c.hits >= int64(limit) {
		return decide(c.hits+1, limit, c.slot), nil
	}
	c.hits++
	return decide(c.hits, limit, c.slot), nil
}

// sweep drops counters whose window has closed and reports how many went.
func (m *MemoryLimiter) sweep(now time.Time) int {
	dropped := 0
	for key, c := range m.counters {
		if !now.Before(c.slot.ends) {
			delete(m.counters, key)
			dropped++
		}
	}
	return dropped
}

var _ domain.RateLimiter = (*MemoryLimiter)(nil)
