package vocab

import (
	"sync"
	"time"
)

// TTLCache is a process-local cache for positive vocabulary-existence
// results. It is an optimization only: absence of an entry means "check the
// store again", never "the record does not exist". Uniqueness is guaranteed
// by the lock + re-check path, not by this cache.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// NewTTLCache creates an empty cache.
func NewTTLCache() *TTLCache {
	return &TTLCache{entries: map[string]cacheEntry{}}
}

// Get returns the cached value for key, or (nil, false) when absent or
// expired. Expired entries are dropped on access.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for the given ttl.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expires: time.Now().Add(ttl)}
}
