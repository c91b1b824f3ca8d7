package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prperemyshlev/pagoseguro-auth/pkg/database"
	"github.com/redis/go-redis/v9"
)

// RedisRateLimiter is a sliding window log limiter backed by a Redis sorted set
type RedisRateLimiter struct {
	redis *database.Redis
	now   func() time.Time
}

var _ RateLimiter = (*RedisRateLimiter)(nil)

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RedisRateLimiter {
	return &RedisRateLimiter{redis: redis, now: time.Now}
}

// Allow records the request if it fits in the window.
// Key format: "ratelimit:{key}"
func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (RateLimitDecision, error) {
	now := r.now()
	windowStart := now.Add(-window)
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := r.redis.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	count := pipe.ZCard(ctx, redisKey)
	oldest := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitDecision{}, fmt.Errorf("failed to read rate limit window: %w", err)
	}

	used := int(count.Val())
	if used >= limit {
		decision := RateLimitDecision{Allowed: false, Remaining: 0, RetryAfter: window}
		if entries := oldest.Val(); len(entries) > 0 {
			oldestAt := time.Unix(0, int64(entries[0].Score))
			decision.RetryAfter = window - now.Sub(oldestAt)
		}
		return decision, nil
	}

	member := fmt.Sprintf("%d", now.UnixNano())
	pipe = r.redis.Client.TxPipeline()
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	pipe.Expire(ctx, redisKey, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitDecision{}, fmt.Errorf("failed to record request: %w", err)
	}

	return RateLimitDecision{Allowed: true, Remaining: limit - used - 1}, nil
}
