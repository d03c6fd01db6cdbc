// Response cache: keyed by hash(model || prompt), TTL expiry, and batch
// eviction of the oldest quarter when full.
package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"
)

const (
	// DefaultCacheSize is the default entry capacity.
	DefaultCacheSize = 1000
	// DefaultCacheTTL is the default entry lifetime.
	DefaultCacheTTL = time.Hour
)

type cacheEntry struct {
	resp       Response
	insertedAt time.Time
}

// Cache stores completion responses by model and prompt.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	size    int
	ttl     time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewCache creates a cache with the given capacity and TTL (non-positive
// values use the defaults).
func NewCache(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		size:    size,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached response for (model, prompt) if present and fresh.
func (c *Cache) Get(model, prompt string) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(model, prompt)
	e, ok := c.entries[key]
	if !ok {
		return Response{}, false
	}
	if c.now().Sub(e.insertedAt) > c.ttl {
		delete(c.entries, key)
		return Response{}, false
	}
	return e.resp, true
}

// Put stores a response. At capacity, the oldest 25% of entries by
// insertion time are dropped first.
func (c *Cache) Put(model, prompt string, resp Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.size {
		c.evictOldestQuarter()
	}
	c.entries[cacheKey(model, prompt)] = cacheEntry{resp: resp, insertedAt: c.now()}
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldestQuarter() {
	type keyed struct {
		key string
		at  time.Time
	}
	all := make([]keyed, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, keyed{k, e.insertedAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.Before(all[j].at) })

	n := len(all) / 4
	if n < 1 {
		n = 1
	}
	for _, k := range all[:n] {
		delete(c.entries, k.key)
	}
}
