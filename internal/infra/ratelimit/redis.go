package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"todod/internal/domain"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "todod:ratelimit:"

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	Now      func() time.Time
}

// RedisLimiter shares window counters between replicas. Each window gets its
// own key, so counters never need resetting; they expire when the window closes.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func NewRedisLimiter(opts RedisOptions) (*RedisLimiter, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 2 * time.Second,
		MaxRetries:  1,
	})
	return NewRedisLimiterWithClient(client, opts.Prefix, opts.Now), nil
}

func NewRedisLimiterWithClient(client *redis.Client, prefix string, now func() time.Time) *RedisLimiter {
	if now == nil {
		now = time.Now
	}
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisLimiter{client: client, prefix: prefix, now: now}
}

func (r *RedisLimiter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisLimiter) Close() error {
	return r.client.Close()
}

func (r *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return unlimited(limit), nil
	}
	current := slotAt(r.now(), window)
	windowKey := r.windowKey(key, current)

	var hits *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		hits = pipe.Incr(ctx, windowKey)
		pipe.ExpireAt(ctx, windowKey, current.ends.Add(time.Second))
		return nil
	})
	if err != nil {
		return domain.RateLimitDecision{}, fmt.Errorf("redis allow %s: %w", key, err)
	}
	return decide(hits.Val(), limit, current), nil
}

func (r *RedisLimiter) windowKey(key string, s slot) string {
	return r.prefix + key + ":" + strconv.FormatInt(s.index, 10)
}

var _ domain.RateLimiter = (*RedisLimiter)(nil)
