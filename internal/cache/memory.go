// internal/cache/memory.go
package cache

import (
	"net"
	"sync"
	"time"

	"iterdns.io/internal/models"
)

// TTL is the fixed validity window for cached addresses. Entries older than
// this are treated as absent and purged on the next access.
const TTL = 3600 * time.Second

// Cache maps resolved domain names to IPv4 addresses with lazy TTL expiry.
type Cache interface {
	// Get returns the cached address for domain and whether the lookup
	// was a HIT or a MISS. A stale entry is removed and reported as MISS.
	Get(domain string) (net.IP, models.CacheStatus)

	// Set unconditionally stores addr for domain with a fresh timestamp.
	Set(domain string, addr net.IP)

	Size() int
	Stats() Stats
	Close() error
}

// Stats represents cache performance statistics.
type Stats struct {
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	Entries int     `json:"entries"`
	HitRate float64 `json:"hit_rate"`
}

// calculateHitRate computes the cache hit rate as a percentage.
func (s *Stats) calculateHitRate() {
	total := s.Hits + s.Misses
	if total == 0 {
		s.HitRate = 0.0
	} else {
		s.HitRate = float64(s.Hits) / float64(total) * 100.0
	}
}

type memoryEntry struct {
	addr       net.IP
	insertedAt time.Time
}

// MemoryCache is the in-process Cache implementation. There is no capacity
// bound: unbounded growth is an accepted limitation, and expiry happens
// lazily on access rather than by background sweeping.
type MemoryCache struct {
	mu    sync.Mutex
	data  map[string]memoryEntry
	stats Stats

	now func() time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]memoryEntry),
		now:  time.Now,
	}
}

// Get retrieves the address cached for domain.
func (c *MemoryCache) Get(domain string) (net.IP, models.CacheStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.data[domain]
	if !exists {
		c.stats.Misses++
		return nil, models.CacheMiss
	}

	if c.now().Sub(entry.insertedAt) >= TTL {
		delete(c.data, domain)
		c.stats.Misses++
		return nil, models.CacheMiss
	}

	c.stats.Hits++
	return entry.addr, models.CacheHit
}

// Set stores addr for domain, overwriting any previous entry.
func (c *MemoryCache) Set(domain string, addr net.IP) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[domain] = memoryEntry{
		addr:       addr,
		insertedAt: c.now(),
	}
}

// Size returns the current number of entries, stale ones included.
func (c *MemoryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Stats returns current cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = len(c.data)
	stats.calculateHitRate()
	return stats
}

// Close releases resources; the memory cache has none.
func (c *MemoryCache) Close() error {
	return nil
}
