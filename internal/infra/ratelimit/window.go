package ratelimit

import (
	"fmt"
	"time"

	"todod/internal/domain"
)

// OperationKey names the bucket for one client calling one todo operation,
// e.g. "client:10.0.0.7:route:todos.create".
func OperationKey(clientIP, operation string) string {
	return fmt.Sprintf("client:%s:route:%s", clientIP, operation)
}

// slot is a clock-aligned window: every limiter that shares a window length
// agrees on where each window starts and ends.
type slot struct {
	index int64
	ends  time.Time
}

func slotAt(now time.Time, length time.Duration) slot {
	if length <= 0 {
		length = time.Second
	}
	index := now.UnixNano() / int64(length)
	return slot{index: index, ends: time.Unix(0, (index+1)*int64(length))}
}

func decide(hits int64, limit int, s slot) domain.RateLimitDecision {
	remaining := limit - int(hits)
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitDecision{
		Allowed:   hits <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   s.ends,
	}
}

func unlimited(limit int) domain.RateLimitDecision {
	return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}
}
