// Package cache provides a size-bounded memoization cache with TTL
// expiration for analysis results.
package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TTL is a thread-safe LRU cache whose entries expire after a fixed
// duration. There is no at-most-once guarantee: concurrent misses for the
// same key may both recompute, which is harmless since analyses are
// idempotent. Use as plain get-or-compute-and-store.
type TTL[K comparable, V any] struct {
	cache *lru.Cache[K, *entry[V]]
	ttl   time.Duration
	now   func() time.Time

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// NewTTL creates a cache holding at most size entries, each expiring ttl
// after insertion. A ttl of 0 disables expiration.
func NewTTL[K comparable, V any](size int, ttl time.Duration) (*TTL[K, V], error) {
	c, err := lru.New[K, *entry[V]](size)
	if err != nil {
		return nil, err
	}
	return &TTL[K, V]{
		cache: c,
		ttl:   ttl,
		now:   time.Now,
	}, nil
}

// WithClock overrides the clock, for tests.
func (c *TTL[K, V]) WithClock(now func() time.Time) *TTL[K, V] {
	c.now = now
	return c
}

// Get returns the cached value if present and not expired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	e, ok := c.cache.Get(key)
	if !ok || (c.ttl > 0 && c.now().After(e.expiresAt)) {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		var zero V
		return zero, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
	return e.value, true
}

// Set stores a value, evicting the least recently used entry when full.
func (c *TTL[K, V]) Set(key K, value V) {
	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	c.cache.Add(key, &entry[V]{value: value, expiresAt: expiresAt})
}

// Delete removes a key.
func (c *TTL[K, V]) Delete(key K) {
	c.cache.Remove(key)
}

// Stats returns lifetime hit/miss counts.
func (c *TTL[K, V]) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
