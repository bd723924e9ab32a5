package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-promo/internal/resilience"
)

const productsCacheKey = "catalog:products:v1"

// Cache wraps Redis helpers for JSON payloads.
type Cache struct {
	client  redis.UniversalClient
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewCache constructs a cache helper. A nil client disables caching.
func NewCache(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// WithBreaker short-circuits reads and writes while Redis keeps failing, so
// listing falls through to the store without waiting on timeouts.
func (c *Cache) WithBreaker(b *resilience.Breaker) *Cache {
	c.breaker = b
	return c
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if c == nil || c.client == nil || key == "" {
		return false, nil
	}
	var data []byte
	err := c.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		data, err = c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	})
	switch {
	case errors.Is(err, resilience.ErrOpenCircuit):
		return false, nil
	case err != nil:
		return false, err
	case data == nil:
		return false, nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if c == nil || c.client == nil || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	err = c.breaker.Do(ctx, func(ctx context.Context) error {
		return c.client.Set(ctx, key, data, c.ttl).Err()
	})
	if errors.Is(err, resilience.ErrOpenCircuit) {
		return nil
	}
	return err
}

// Delete drops the given keys. Invalidation is always attempted, even with an
// open breaker.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if c == nil || c.client == nil || len(keys) == 0 {
		return nil
	}
	err := c.client.Del(ctx, keys...).Err()
	c.breaker.Report(ctx, err == nil)
	return err
}
