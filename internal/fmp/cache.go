package fmp

import (
	"encoding/json"
	"sync"
	"time"
)

type cacheEntry struct {
	data json.RawMessage
	ts   time.Time
}

// Cache is a process-wide TTL response cache for provider payloads.
// It is constructed once at startup and injected into the client.
// Concurrent writes to the same key are benign: last writer wins and a
// recomputed value is semantically equivalent to the one it overwrites.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

// NewCache creates a response cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns the cached payload for key, or false if absent or expired.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Since(entry.ts) >= c.ttl {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.data, true
}

// Set stores a payload under key with the current timestamp.
func (c *Cache) Set(key string, data json.RawMessage) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{data: data, ts: time.Now()}
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
