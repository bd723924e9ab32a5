package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-promo/internal/resilience"
)

const maxRetryDelay = 500 * time.Millisecond

// ErrNotAcquired is returned when the lock stays held past MaxWait.
var ErrNotAcquired = errors.New("lock: not acquired")

var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// Locker provides a Redis-backed distributed lock.
type Locker struct {
	R            redis.UniversalClient
	RetryBackoff time.Duration
	// MaxWait bounds how long WithLock polls before giving up. Zero waits
	// until the context is done.
	MaxWait time.Duration
}

// CartKey is the lock key serialising writes to one cart.
func CartKey(cartID string) string {
	return fmt.Sprintf("lock:cart:%s", cartID)
}

// WithLock executes fn while holding a lock for the provided key. The lock is
// released automatically even if fn returns an error.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	token := uuid.NewString()
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	var deadline <-chan time.Time
	if l.MaxWait > 0 {
		timer := time.NewTimer(l.MaxWait)
		defer timer.Stop()
		deadline = timer.C
	}

	for attempt := 1; ; attempt++ {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(key, token)
			return fn(ctx)
		}
		wait := time.NewTimer(min(resilience.Backoff(retry, attempt, 0.2), maxRetryDelay))
		select {
		case <-ctx.Done():
			wait.Stop()
			return ctx.Err()
		case <-deadline:
			wait.Stop()
			return fmt.Errorf("%w: %s", ErrNotAcquired, key)
		case <-wait.C:
		}
	}
}

func (l Locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, l.R, []string{key}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		_ = l.R.Del(ctx, key).Err()
	}
}
