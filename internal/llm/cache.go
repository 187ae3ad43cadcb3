package llm

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"
)

const (
	DefaultCacheSize = 100
	DefaultCacheTTL  = time.Hour
)

type cacheEntry struct {
	response  string
	createdAt time.Time
}

// ResponseCache memoizes model responses by request. Entries expire after
// ttl and the least recently used entry is evicted once maxSize is reached.
type ResponseCache struct {
	entries map[string]*cacheEntry
	order   []string // most recent first
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	mu      sync.Mutex
	hits    int64
	misses  int64
}

func NewResponseCache(maxSize int, ttl time.Duration) *ResponseCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// CacheKey derives a stable key for a request sent to the named provider.
func CacheKey(provider string, req Request) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(req.System))
	h.Write([]byte{0})
	h.Write([]byte(req.Prompt))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatBool(req.JSON)))
	for _, img := range req.Images {
		h.Write([]byte{0})
		h.Write(img)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (c *ResponseCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return "", false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return "", false
	}

	c.hits++
	c.moveToFront(key)
	return e.response, true
}

func (c *ResponseCache) Put(key, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{response: response, createdAt: c.now()}
		c.moveToFront(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{response: response, createdAt: c.now()}
	c.order = append([]string{key}, c.order...)
}

func (c *ResponseCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CacheStats contains cache performance metrics.
type CacheStats struct {
	Hits    int64
	Misses  int64
	Size    int
	MaxSize int
	HitRate float64
}

func (c *ResponseCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	hitRate := float64(0)
	total := c.hits + c.misses
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}

	return CacheStats{
		Hits:    c.hits,
		Misses:  c.misses,
		Size:    len(c.entries),
		MaxSize: c.maxSize,
		HitRate: hitRate,
	}
}

func (c *ResponseCache) moveToFront(key string) {
	c.removeFromOrder(key)
	c.order = append([]string{key}, c.order...)
}

func (c *ResponseCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *ResponseCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[len(c.order)-1]
	delete(c.entries, oldest)
	c.order = c.order[:len(c.order)-1]
}
