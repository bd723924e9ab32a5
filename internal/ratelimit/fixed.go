package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

type rateKey struct {
	window time.Duration
	limit  int
}

// Fixed is a fixed window limiter over a ulule store. The memory store suits
// single-replica deployments; the redis store shares counters across replicas.
type Fixed struct {
	store limiter.Store

	mu        sync.Mutex
	instances map[rateKey]*limiter.Limiter
}

// NewMemory constructs an in-process limiter with its own store.
func NewMemory(prefix string) *Fixed {
	return newFixed(memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	}))
}

// NewFixedRedis constructs a limiter whose counters live in Redis.
func NewFixedRedis(client redis.UniversalClient, prefix string) (*Fixed, error) {
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return newFixed(store), nil
}

func newFixed(store limiter.Store) *Fixed {
	return &Fixed{store: store, instances: make(map[rateKey]*limiter.Limiter)}
}

// Allow counts one hit for key against limit per window.
func (m *Fixed) Allow(ctx context.Context, key string, window time.Duration, limit int) (Result, error) {
	if m == nil || limit <= 0 || window <= 0 {
		return Result{Allowed: true, Remaining: limit, ResetAt: time.Now().Add(window)}, nil
	}
	rk := rateKey{window: window, limit: limit}
	lctx, err := m.instance(rk).Get(ctx, fmt.Sprintf("%d:%d:%s", window.Milliseconds(), limit, key))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Allowed:   !lctx.Reached,
		Remaining: int(lctx.Remaining),
		ResetAt:   time.Unix(lctx.Reset, 0),
	}, nil
}

func (m *Fixed) instance(rk rateKey) *limiter.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.instances[rk]; ok {
		return inst
	}
	inst := limiter.New(m.store, limiter.Rate{Period: rk.window, Limit: int64(rk.limit)})
	m.instances[rk] = inst
	return inst
}
