// Package infra is the caching and resilience layer under the wikiext
// MediaWiki client: a TTL response cache with LRU eviction, coalescing of
// identical in-flight API calls, and a circuit breaker that sheds load
// while the wiki is unhealthy.
package infra

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultMaxCacheEntries bounds the response cache; one entry holds one
	// decoded API response.
	DefaultMaxCacheEntries = 1000

	// sweepInterval is how often expired entries are collected in the
	// background. Get also drops expired entries lazily.
	sweepInterval = 5 * time.Minute
)

type cacheEntry struct {
	value      interface{}
	expiresAt  time.Time
	accessedAt time.Time
}

// Cache stores decoded API responses under namespaced string keys
// ("page_info:Title") with a per-entry TTL. When the entry limit is
// exceeded the least recently used entries are evicted; DeletePrefix
// supports the targeted invalidation the client performs after edits.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	maxEntries int
	onEvict    func(n int)

	stop     chan struct{}
	stopOnce sync.Once
}

// NewCache creates a cache holding at most maxEntries entries and starts
// its background sweeper. Call Close to stop the sweeper.
func NewCache(maxEntries int) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxCacheEntries
	}
	c := &Cache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		stop:       make(chan struct{}),
	}
	go c.sweep()
	return c
}

// OnEvict registers a callback receiving the number of entries removed per
// LRU eviction. Set it before the cache is shared between goroutines.
func (c *Cache) OnEvict(fn func(n int)) {
	c.onEvict = fn
}

// Get returns the value stored under key when present and not expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	e.accessedAt = now
	return e.value, true
}

// Set stores value under key for the given TTL, evicting the least
// recently used entries when the cache is over its limit.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	now := time.Now()

	c.mu.Lock()
	c.entries[key] = &cacheEntry{value: value, expiresAt: now.Add(ttl), accessedAt: now}
	evicted := c.evictOverLimitLocked()
	c.mu.Unlock()

	if evicted > 0 && c.onEvict != nil {
		c.onEvict(evicted)
	}
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// DeletePrefix removes every entry whose key starts with prefix.
func (c *Cache) DeletePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.mu.Unlock()
}

// Size returns the current number of entries.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.entries))
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// evictOverLimitLocked drops the least recently used entries until the
// cache sits a tenth under its limit. Caller holds c.mu.
func (c *Cache) evictOverLimitLocked() int {
	if len(c.entries) <= c.maxEntries {
		return 0
	}
	target := c.maxEntries - c.maxEntries/10

	type aged struct {
		key        string
		accessedAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, accessedAt: e.accessedAt})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].accessedAt.Before(all[j].accessedAt)
	})

	evicted := 0
	for _, a := range all {
		if len(c.entries) <= target {
			break
		}
		delete(c.entries, a.key)
		evicted++
	}
	return evicted
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for k, e := range c.entries {
				if now.After(e.expiresAt) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		}
	}
}
