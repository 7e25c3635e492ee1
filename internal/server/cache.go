package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/sells-group/hospital-siting/internal/analysis"
)

// Default cache settings.
const (
	DefaultCacheEntries = 128
	DefaultCacheTTL     = 15 * time.Minute
)

// ResultCache is an in-memory LRU cache of analysis reports keyed by the
// normalized analysis options. Entries expire after a TTL.
type ResultCache struct {
	mu         sync.RWMutex
	entries    map[string]*resultCacheEntry
	order      []string // LRU order: front = oldest
	maxEntries int
	ttl        time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

type resultCacheEntry struct {
	report    *analysis.Report
	createdAt time.Time
}

// CacheStats holds cache performance counters.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	HitRate    float64 `json:"hit_rate"`
}

// NewResultCache creates a cache holding at most maxEntries reports for ttl.
// Non-positive arguments select the defaults.
func NewResultCache(maxEntries int, ttl time.Duration) *ResultCache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{
		entries:    make(map[string]*resultCacheEntry, maxEntries),
		order:      make([]string, 0, maxEntries),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get returns the cached report for key, or nil on a miss or expiry.
func (c *ResultCache) Get(key string) *analysis.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil
	}

	if time.Since(entry.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses.Add(1)
		return nil
	}

	c.removeFromOrder(key)
	c.order = append(c.order, key)
	c.hits.Add(1)
	return entry.report
}

// Put stores a report, evicting the least recently used entry when full.
func (c *ResultCache) Put(key string, r *analysis.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; ok {
		c.entries[key] = &resultCacheEntry{report: r, createdAt: time.Now()}
		c.removeFromOrder(key)
		c.order = append(c.order, key)
		return
	}

	for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = &resultCacheEntry{report: r, createdAt: time.Now()}
	c.order = append(c.order, key)
}

// Purge drops every entry. Counters are kept.
func (c *ResultCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*resultCacheEntry, c.maxEntries)
	c.order = c.order[:0]
}

// Stats returns cache performance statistics.
func (c *ResultCache) Stats() CacheStats {
	c.mu.RLock()
	entries := len(c.entries)
	maxEntries := c.maxEntries
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: maxEntries,
		Hits:       hits,
		Misses:     misses,
		HitRate:    hitRate,
	}
}

func (c *ResultCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}
