package sentiment

import (
	"sync"
	"time"

	"FXAdvisor/internal/domain/models"
)

// Cache is a per-pair TTL cache of aggregated sentiment. A per-pair lock
// ensures at most one goroutine recomputes an expired entry while others
// wait for the result.
type Cache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry
	locks   map[string]*sync.Mutex
}

type cacheEntry struct {
	value    models.AggregatedSentiment
	storedAt time.Time
}

// NewCache creates a sentiment cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		locks:   make(map[string]*sync.Mutex),
	}
}

// Get returns the cached aggregate for the pair when still fresh.
func (c *Cache) Get(pair string) (models.AggregatedSentiment, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[pair]
	if !ok || time.Since(e.storedAt) >= c.ttl {
		return models.AggregatedSentiment{}, false
	}
	return e.value, true
}

// Put stores an aggregate for the pair. Absent aggregates are never stored.
func (c *Cache) Put(pair string, v models.AggregatedSentiment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pair] = cacheEntry{value: v, storedAt: time.Now()}
}

// Invalidate drops the cached aggregate for a pair, or all pairs when empty.
func (c *Cache) Invalidate(pair string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pair == "" {
		c.entries = make(map[string]cacheEntry)
		return
	}
	delete(c.entries, pair)
}

// keyLock returns the recomputation lock for a pair.
func (c *Cache) keyLock(pair string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	lk, ok := c.locks[pair]
	if !ok {
		lk = &sync.Mutex{}
		c.locks[pair] = lk
	}
	return lk
}
