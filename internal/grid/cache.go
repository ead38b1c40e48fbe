package grid

// cache.go implements the bounded result cache.
//
// Entries are keyed by QueryKey and hold the rows and total of the last
// successful fetch. Two limits apply:
//
//   - TTL: an entry older than ttl (measured from creation) is a miss. Expiry
//     is checked on read and swept on every Set; there is no background timer.
//   - Size: after the sweep, entries are evicted ordered by
//     (LastAccessedAt ascending, AccessCount ascending) until Len() <= maxSize.
//
// Ordering by access count on top of recency keeps a frequently revisited
// page (usually page 1) around longer than a strict LRU would.

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Defaults for NewCache when zero values are passed.
const (
	DefaultCacheMaxSize = 50
	DefaultCacheTTL     = 5 * time.Minute
)

// CacheEntry is one cached query result.
type CacheEntry struct {
	Key            string
	Rows           []Row
	Total          int
	CreatedAt      time.Time
	LastAccessedAt time.Time
	AccessCount    int
}

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
	Size        int    `json:"size"`
	MaxSize     int    `json:"max_size"`
}

// Cache is a bounded, TTL-aware store of query results.
// It is safe for concurrent use and may be shared by several engines.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*CacheEntry
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	stats   CacheStats
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCache creates a cache holding at most maxSize entries for at most ttl.
func NewCache(maxSize int, ttl time.Duration, opts ...CacheOption) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultCacheMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &Cache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns a copy of the entry for key.
// A hit updates LastAccessedAt and AccessCount. An expired entry is removed
// and reported as a miss.
func (c *Cache) Get(key string) (*CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	now := c.now()
	if c.expired(entry, now) {
		delete(c.entries, key)
		c.stats.Expirations++
		c.stats.Misses++
		return nil, false
	}

	entry.LastAccessedAt = now
	entry.AccessCount++
	c.stats.Hits++

	cp := *entry
	return &cp, true
}

// Set stores rows and total under key, replacing any previous entry, then
// sweeps expired entries and evicts down to capacity.
func (c *Cache) Set(key string, rows []Row, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = &CacheEntry{
		Key:            key,
		Rows:           rows,
		Total:          total,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	c.sweep(now)
	c.evict(key)
}

// Invalidate removes every entry whose key contains pattern.
// An empty pattern clears the cache. Returns the number of entries removed.
func (c *Cache) Invalidate(pattern string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pattern == "" {
		n := len(c.entries)
		c.entries = make(map[string]*CacheEntry)
		return n
	}

	removed := 0
	for key := range c.entries {
		if strings.Contains(key, pattern) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, including ones not yet swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Size = len(c.entries)
	s.MaxSize = c.maxSize
	return s
}

func (c *Cache) expired(e *CacheEntry, now time.Time) bool {
	return now.Sub(e.CreatedAt) > c.ttl
}

// sweep removes all expired entries. Caller holds c.mu.
func (c *Cache) sweep(now time.Time) {
	for key, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, key)
			c.stats.Expirations++
		}
	}
}

// evict removes the least recently and least often used entries until the
// cache is back at capacity. The entry under keep is never chosen.
// Caller holds c.mu.
func (c *Cache) evict(keep string) {
	over := len(c.entries) - c.maxSize
	if over <= 0 {
		return
	}

	victims := make([]*CacheEntry, 0, len(c.entries))
	for key, entry := range c.entries {
		if key == keep {
			continue
		}
		victims = append(victims, entry)
	}
	if over > len(victims) {
		over = len(victims)
	}
	sort.Slice(victims, func(i, j int) bool {
		a, b := victims[i], victims[j]
		if !a.LastAccessedAt.Equal(b.LastAccessedAt) {
			return a.LastAccessedAt.Before(b.LastAccessedAt)
		}
		if a.AccessCount != b.AccessCount {
			return a.AccessCount < b.AccessCount
		}
		return a.Key < b.Key
	})

	for _, victim := range victims[:over] {
		delete(c.entries, victim.Key)
		c.stats.Evictions++
	}
}
