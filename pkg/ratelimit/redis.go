package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts requests in a sliding window kept in a sorted set per policy and
// client, so every server instance sees the same budget.
type RedisLimiter struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisLimiter creates a limiter storing its windows under prefix.
func NewRedisLimiter(client redis.UniversalClient, prefix string) *RedisLimiter {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisLimiter{client: client, prefix: prefix, now: time.Now}
}

// Allow records the request if the window still has room. Rejected requests do not
// count against the window.
func (l *RedisLimiter) Allow(ctx context.Context, policy Policy, key string) (Decision, error) {
	if !policy.Enabled() {
		return Decision{Allowed: true, Remaining: -1}, nil
	}

	redisKey := fmt.Sprintf("%s:%s:%s", l.prefix, policy.Name, key)
	now := l.now()
	windowStart := now.Add(-policy.Window)
	member := strconv.FormatInt(now.UnixNano(), 10) + "-" + uuid.NewString()

	var countCmd *redis.IntCmd
	_, err := l.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, redisKey, "-inf", strconv.FormatInt(windowStart.UnixNano(), 10))
		countCmd = pipe.ZCard(ctx, redisKey)
		pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
		pipe.PExpire(ctx, redisKey, policy.Window)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := int(countCmd.Val())
	if count < policy.Limit {
		return Decision{Allowed: true, Remaining: policy.Limit - count - 1}, nil
	}

	if err := l.client.ZRem(ctx, redisKey, member).Err(); err != nil {
		return Decision{}, fmt.Errorf("rate limit rollback failed: %w", err)
	}

	retryAfter := policy.Window
	oldest, err := l.client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
	if err == nil && len(oldest) == 1 {
		expires := time.Unix(0, int64(oldest[0].Score)).Add(policy.Window)
		if d := expires.Sub(now); d > 0 {
			retryAfter = d
		}
	}
	return Decision{Allowed: false, RetryAfter: retryAfter}, nil
}

// Close is a no-op; the redis client is owned by the caller.
func (l *RedisLimiter) Close() error {
	return nil
}
