package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func TestMemoryLimiterWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)}
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: clock.Now})
	ctx := context.Background()
	key := OperationKey("10.0.0.7", "todos.create")

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, key, 2, time.Minute)
		if err != nil || !d.Allowed {
			t.Fatalf("hit %d should be allowed: %+v %v", i, d, err)
		}
	}
	d, err := limiter.Allow(ctx, key, 2, time.Minute)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if d.Allowed || d.Remaining != 0 {
		t.Fatalf("third hit should be rejected: %+v", d)
	}
	wantReset := time.Date(2026, 1, 1, 0, 1, 0, 0, time.UTC)
	if !d.ResetAt.Equal(wantReset) {
		t.Fatalf("window should close on the minute, got %v", d.ResetAt)
	}

	clock.now = wantReset
	d, _ = limiter.Allow(ctx, key, 2, time.Minute)
	if !d.Allowed || d.Remaining != 1 {
		t.Fatalf("next window should allow: %+v", d)
	}
}

func TestMemoryLimiterSeparatesOperations(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	ctx := context.Background()
	if d, _ := limiter.Allow(ctx, OperationKey("10.0.0.7", "todos.list"), 1, time.Minute); !d.Allowed {
		t.Fatalf("list should be allowed")
	}
	if d, _ := limiter.Allow(ctx, OperationKey("10.0.0.7", "todos.delete"), 1, time.Minute); !d.Allowed {
		t.Fatalf("delete has its own budget")
	}
	if d, _ := limiter.Allow(ctx, OperationKey("10.0.0.8", "todos.list"), 1, time.Minute); !d.Allowed {
		t.Fatalf("other clients have their own budget")
	}
}

func TestMemoryLimiterDisabled(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	d, err := limiter.Allow(context.Background(), "k", 0, time.Minute)
	if err != nil || !d.Allowed {
		t.Fatalf("limit 0 should always allow")
	}
}

func TestMemoryLimiterCapacity(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewMemoryLimiter(MemoryLimiterConfig{Now: clock.Now, MaxKeys: 1})
	ctx := context.Background()
	if _, err := limiter.Allow(ctx, "a", 1, time.Minute); err != nil {
		t.Fatalf("first key: %v", err)
	}
	if _, err := limiter.Allow(ctx, "b", 1, time.Minute); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	clock.now = clock.now.Add(time.Minute)
	if _, err := limiter.Allow(ctx, "b", 1, time.Minute); err != nil {
		t.Fatalf("closed window should be swept: %v", err)
	}
}

func TestSlotAt(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a := slotAt(base.Add(5*time.Second), 30*time.Second)
	b := slotAt(base.Add(29*time.Second), 30*time.Second)
	c := slotAt(base.Add(30*time.Second), 30*time.Second)
	if a.index != b.index || b.index == c.index {
		t.Fatalf("unexpected slots %+v %+v %+v", a, b, c)
	}
	if !a.ends.Equal(base.Add(30 * time.Second)) {
		t.Fatalf("unexpected end %v", a.ends)
	}
}

func TestDecide(t *testing.T) {
	s := slotAt(time.Unix(1000, 0), time.Minute)
	if d := decide(2, 2, s); !d.Allowed || d.Remaining != 0 {
		t.Fatalf("last allowed hit: %+v", d)
	}
	d := decide(3, 2, s)
	if d.Allowed || d.Remaining != 0 || !d.ResetAt.Equal(s.ends) {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestRedisWindowKey(t *testing.T) {
	limiter := NewRedisLimiterWithClient(nil, "", nil)
	s := slotAt(time.Unix(120, 0), time.Minute)
	if got := limiter.windowKey("client:1.2.3.4:route:todos.list", s); got != "todod:ratelimit:client:1.2.3.4:route:todos.list:2" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestNewRedisLimiterRequiresAddr(t *testing.T) {
	if _, err := NewRedisLimiter(RedisOptions{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
