// internal/cache/redis.go
package cache

import (
	"net"
	"sync"

	"iterdns.io/internal/logging"
	"iterdns.io/internal/models"
	"iterdns.io/internal/redis"
)

// RedisCache is a Cache backed by a shared Redis instance, for running
// several resolver hosts against one warm cache. Expiry is enforced
// server-side by SETEX, so a stale entry is absent by the time Get sees it,
// preserving the same expiry-as-absence semantics as the memory cache.
type RedisCache struct {
	clientName string
	keyPrefix  string

	mu    sync.Mutex
	stats Stats
}

// NewRedisCache creates a cache using the named Redis client registered via
// redis.NewClient.
func NewRedisCache(clientName, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = "iterdns:addr:"
	}
	return &RedisCache{
		clientName: clientName,
		keyPrefix:  keyPrefix,
	}
}

func (c *RedisCache) key(domain string) string {
	return c.keyPrefix + domain
}

// Get retrieves the address cached for domain.
func (c *RedisCache) Get(domain string) (net.IP, models.CacheStatus) {
	data, err := redis.GetFrom(c.clientName, c.key(domain))
	if err != nil {
		if err != redis.Nil && err != redis.ErrNoClient {
			logging.Warn("cache", "redis get failed", "domain", domain, "error", err.Error())
		}
		c.miss()
		return nil, models.CacheMiss
	}

	ip := net.ParseIP(string(data))
	if ip == nil {
		// Unparseable entry, drop it.
		_ = redis.DeleteOn(c.clientName, c.key(domain))
		c.miss()
		return nil, models.CacheMiss
	}

	c.hit()
	return ip, models.CacheHit
}

// Set stores addr for domain with the fixed TTL.
func (c *RedisCache) Set(domain string, addr net.IP) {
	if err := redis.SetEXOn(c.clientName, c.key(domain), addr.String(), int(TTL.Seconds())); err != nil {
		logging.Warn("cache", "redis set failed", "domain", domain, "error", err.Error())
	}
}

// Size returns the number of cached entries under this cache's key prefix.
func (c *RedisCache) Size() int {
	keys, err := redis.ScanFrom(c.clientName, c.keyPrefix+"*")
	if err != nil {
		return -1
	}
	return len(keys)
}

// Stats returns hit/miss counters observed by this process.
func (c *RedisCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Entries = c.Size()
	stats.calculateHitRate()
	return stats
}

// Close closes the underlying Redis client.
func (c *RedisCache) Close() error {
	redis.Close(c.clientName)
	return nil
}

func (c *RedisCache) hit() {
	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
}

func (c *RedisCache) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
}
