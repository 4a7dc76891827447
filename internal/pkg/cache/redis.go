package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/patrolops/patrol-backend-go/internal/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// RedisCache is a Cache shared by every API instance. Keys are namespaced by a
// generation counter; Invalidate bumps the counter so older keys are never
// read again and expire on their own.
//
// When Invalidate fails the cache stops serving reads until a later
// Invalidate succeeds.
type RedisCache struct {
	client  *redis.Client
	prefix  string
	name    string
	ttl     time.Duration
	cb      *gobreaker.CircuitBreaker
	metrics *metrics.Metrics
	bypass  atomic.Bool
}

func NewRedisCache(client *redis.Client, name string, ttl time.Duration, m *metrics.Metrics) *RedisCache {
	breakerName := "redis-" + name
	settings := gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, redis.Nil)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				"breaker", name,
				"from_state", from.String(),
				"to_state", to.String(),
			)

			// 0=closed, 0.5=half_open, 1=open
			stateValue := 0.0
			switch to {
			case gobreaker.StateOpen:
				stateValue = 1.0
			case gobreaker.StateHalfOpen:
				stateValue = 0.5
			}
			m.BreakerState(name, stateValue)
		},
	}

	return &RedisCache{
		client:  client,
		prefix:  "patrol:" + name,
		name:    name,
		ttl:     ttl,
		cb:      gobreaker.NewCircuitBreaker(settings),
		metrics: m,
	}
}

func (c *RedisCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *RedisCache) dataKey(gen int64, key string) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, key)
}

func (c *RedisCache) Fetch(ctx context.Context, key string, load Loader) ([]byte, error) {
	if c.bypass.Load() {
		c.metrics.CacheMiss(c.name)
		return load(ctx)
	}

	gen, err := c.currentGeneration(ctx)
	if err != nil {
		slog.Warn("cache generation lookup failed", "cache", c.name, "error", err)
		c.metrics.CacheError(c.name, "generation")
		c.metrics.CacheMiss(c.name)
		return load(ctx)
	}

	dataKey := c.dataKey(gen, key)
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, dataKey).Bytes()
	})
	if err == nil {
		c.metrics.CacheHit(c.name)
		return res.([]byte), nil
	}
	if !errors.Is(err, redis.Nil) {
		slog.Warn("cache read failed", "cache", c.name, "key", dataKey, "error", err)
		c.metrics.CacheError(c.name, "get")
	}

	c.metrics.CacheMiss(c.name)
	value, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if !c.bypass.Load() {
		_, err = c.cb.Execute(func() (interface{}, error) {
			return nil, c.client.Set(ctx, dataKey, value, c.ttl).Err()
		})
		if err != nil {
			slog.Warn("cache write failed", "cache", c.name, "key", dataKey, "error", err)
			c.metrics.CacheError(c.name, "set")
		}
	}

	return value, nil
}

func (c *RedisCache) Invalidate(ctx context.Context) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Incr(ctx, c.generationKey()).Result()
	})
	if err != nil {
		c.bypass.Store(true)
		c.metrics.CacheError(c.name, "invalidate")
		return fmt.Errorf("invalidate %s cache: %w", c.name, err)
	}

	c.bypass.Store(false)
	return nil
}

func (c *RedisCache) currentGeneration(ctx context.Context) (int64, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Get(ctx, c.generationKey()).Int64()
	})
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}
