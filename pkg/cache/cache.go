// Package cache is a minimal in-process TTL map. It backs the single-node
// idempotency fallback when Redis is not configured.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache stores values with per-key expiry. Expired entries are pruned lazily
// on write, so memory use tracks the write rate rather than wall time.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]entry
	writes int
}

// pruneEvery bounds how much garbage accumulates between sweeps.
const pruneEvery = 256

// New creates an empty cache.
func New() *Cache {
	return &Cache{items: make(map[string]entry)}
}

// Set stores a value under key for the given TTL, replacing any previous
// value.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
	c.writes++
	if c.writes%pruneEvery == 0 {
		c.prune()
	}
}

// Get returns the live value for key. Expired entries read as absent.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len counts live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	now := time.Now()
	for _, e := range c.items {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}

// prune removes expired entries. Caller holds the write lock.
func (c *Cache) prune() {
	now := time.Now()
	for k, e := range c.items {
		if now.After(e.expiresAt) {
			delete(c.items, k)
		}
	}
}
