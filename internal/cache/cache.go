// SPDX-License-Identifier: MIT

// Package cache provides the response cache behind the profile search
// API: serialized response bodies keyed by query + snapshot version,
// with TTL expiry. Backends: in-memory (default), Redis, or a no-op
// for disabling caching outright.
package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/teamdir/internal/metrics"
)

// Cache stores serialized response bodies with expiration.
type Cache interface {
	// Get retrieves a cached body. ok is false if absent or expired.
	Get(key string) ([]byte, bool)
	// Set stores a body with the specified TTL.
	Set(key string, value []byte, ttl time.Duration)
	// Delete removes a single entry.
	Delete(key string)
	// Clear removes all entries.
	Clear()
	// Stats returns cache statistics.
	Stats() CacheStats
	// Close releases backend resources (janitor goroutine, connections).
	Close() error
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	Hits        int64
	Misses      int64
	Sets        int64
	Evictions   int64
	CurrentSize int
}

// Config selects and tunes the cache backend.
type Config struct {
	Backend         string        // "", "memory", "redis", "noop"
	CleanupInterval time.Duration // memory janitor interval
	Redis           RedisConfig
}

// New creates a Cache for the configured backend. An empty backend
// falls back to memory.
func New(cfg Config, logger zerolog.Logger) (Cache, error) {
	switch cfg.Backend {
	case "", "memory":
		interval := cfg.CleanupInterval
		if interval <= 0 {
			interval = time.Minute
		}
		return NewMemoryCache(interval), nil
	case "redis":
		return NewRedisCache(cfg.Redis, logger)
	case "noop":
		return NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Backend)
	}
}

type entry struct {
	value      []byte
	expiration time.Time
}

func (e *entry) isExpired() bool {
	return time.Now().After(e.expiration)
}

// memoryCache is an in-memory implementation of Cache.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	stats   CacheStats
	janitor *janitor
}

// NewMemoryCache creates a new in-memory cache with automatic cleanup.
// The cleanupInterval determines how often expired entries are removed.
func NewMemoryCache(cleanupInterval time.Duration) Cache {
	c := &memoryCache{
		entries: make(map[string]*entry),
	}

	if cleanupInterval > 0 {
		c.janitor = &janitor{
			interval: cleanupInterval,
			stop:     make(chan struct{}),
		}
		go c.janitor.run(c)
	}

	return c
}

func (c *memoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found || e.isExpired() {
		c.stats.Misses++
		metrics.IncCacheOperation("memory", "get", "miss")
		return nil, false
	}

	c.stats.Hits++
	metrics.IncCacheOperation("memory", "get", "hit")
	return e.value, true
}

func (c *memoryCache) Set(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &entry{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
	c.stats.Sets++
	metrics.IncCacheOperation("memory", "set", "ok")
}

func (c *memoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *memoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := c.stats
	stats.CurrentSize = len(c.entries)
	return stats
}

// deleteExpired removes all expired entries. Returns the number deleted.
func (c *memoryCache) deleteExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for key, e := range c.entries {
		if e.isExpired() {
			delete(c.entries, key)
			count++
		}
	}

	c.stats.Evictions += int64(count)
	return count
}

// Close stops the background cleanup goroutine.
func (c *memoryCache) Close() error {
	if c.janitor != nil {
		c.janitor.stop <- struct{}{}
	}
	return nil
}

// janitor performs periodic cleanup of expired entries.
type janitor struct {
	interval time.Duration
	stop     chan struct{}
}

func (j *janitor) run(c *memoryCache) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-j.stop:
			return
		}
	}
}

// NoOpCache is a cache that does nothing (disables response caching).
type noOpCache struct{}

// NewNoOpCache creates a cache that doesn't cache anything.
func NewNoOpCache() Cache {
	return &noOpCache{}
}

func (c *noOpCache) Get(string) ([]byte, bool)             { return nil, false }
func (c *noOpCache) Set(string, []byte, time.Duration)     {}
func (c *noOpCache) Delete(string)                         {}
func (c *noOpCache) Clear()                                {}
func (c *noOpCache) Stats() CacheStats                     { return CacheStats{} }
func (c *noOpCache) Close() error                          { return nil }
