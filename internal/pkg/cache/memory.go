package cache

import (
	"context"
	"sync"
	"time"

	"github.com/patrolops/patrol-backend-go/internal/pkg/metrics"
)

type memoryEntry struct {
	generation uint64
	value      []byte
	expiresAt  time.Time
}

// MemoryCache is a process-local Cache, used when Redis is not configured.
type MemoryCache struct {
	name    string
	ttl     time.Duration
	metrics *metrics.Metrics
	now     func() time.Time

	mu         sync.Mutex
	generation uint64
	entries    map[string]memoryEntry
}

func NewMemoryCache(name string, ttl time.Duration, m *metrics.Metrics) *MemoryCache {
	return &MemoryCache{
		name:    name,
		ttl:     ttl,
		metrics: m,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Fetch(ctx context.Context, key string, load Loader) ([]byte, error) {
	c.mu.Lock()
	gen := c.generation
	e, ok := c.entries[key]
	if ok && e.generation == gen && c.now().Before(e.expiresAt) {
		c.mu.Unlock()
		c.metrics.CacheHit(c.name)
		return e.value, nil
	}
	c.mu.Unlock()

	c.metrics.CacheMiss(c.name)
	value, err := load(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.entries[key] = memoryEntry{generation: gen, value: value, expiresAt: c.now().Add(c.ttl)}
	}
	c.mu.Unlock()

	return value, nil
}

func (c *MemoryCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.generation++
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}
