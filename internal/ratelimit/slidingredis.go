package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SlidingRedis implements a sliding window rate limiter backed by Redis sorted sets.
// It is shared across API replicas.
type SlidingRedis struct {
	Client redis.UniversalClient
	Prefix string
}

// Allow registers an event for the given key and returns whether it is within the limit.
func (l SlidingRedis) Allow(ctx context.Context, key string, window time.Duration, limit int) (Result, error) {
	now := time.Now()
	until := now.Add(window)
	if l.Client == nil || limit <= 0 || window <= 0 {
		return Result{Allowed: true, Remaining: limit, ResetAt: until}, nil
	}

	score := float64(now.UnixNano())
	cutoff := float64(now.Add(-window).UnixNano())

	redisKey := l.Prefix + key
	member := fmt.Sprintf("%s:%s", key, uuid.NewString())

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", fmt.Sprintf("%f", cutoff))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: score, Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{ResetAt: until}, err
	}

	current := int(countCmd.Val())
	return Result{
		Allowed:   current <= limit,
		Remaining: max(0, limit-current),
		ResetAt:   until,
	}, nil
}
