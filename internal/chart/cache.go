package chart

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// DefaultCacheAge is how long a rendered chart stays in the cache.
const DefaultCacheAge = 10 * time.Minute

const maxCacheEntries = 256

type cacheEntry struct {
	png     []byte
	created time.Time
}

// Cache keeps rendered PNGs keyed by the series they were drawn from, so a
// chart over an unchanged selection is only rendered once.
type Cache struct {
	mu      sync.Mutex
	maxAge  time.Duration
	entries map[uint64]cacheEntry
	now     func() time.Time
}

func NewCache(maxAge time.Duration) *Cache {
	if maxAge <= 0 {
		maxAge = DefaultCacheAge
	}
	return &Cache{
		maxAge:  maxAge,
		entries: make(map[uint64]cacheEntry),
		now:     time.Now,
	}
}

// Key identifies s at the given size.
func Key(s Series, width, height int) uint64 {
	b, _ := json.Marshal(struct {
		Series
		W, H int
	}{s, width, height})
	return xxhash.Sum64(b)
}

// Get returns the cached image for key unless it is missing or stale.
func (c *Cache) Get(key uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.created) > c.maxAge {
		delete(c.entries, key)
		return nil, false
	}
	return e.png, true
}

func (c *Cache) Set(key uint64, png []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= maxCacheEntries {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{png: png, created: c.now()}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLocked drops stale entries, or the oldest one if none are stale.
func (c *Cache) evictLocked() {
	now := c.now()
	var oldestKey uint64
	var oldest time.Time
	for k, e := range c.entries {
		if now.Sub(e.created) > c.maxAge {
			delete(c.entries, k)
			continue
		}
		if oldest.IsZero() || e.created.Before(oldest) {
			oldest, oldestKey = e.created, k
		}
	}
	if len(c.entries) >= maxCacheEntries {
		delete(c.entries, oldestKey)
	}
}

// Render returns the cached PNG for s, drawing and storing it on a miss.
func (c *Cache) Render(s Series, width, height int) ([]byte, error) {
	key := Key(s, width, height)
	if png, ok := c.Get(key); ok {
		return png, nil
	}
	png, err := RenderPNG(s, width, height)
	if err != nil {
		return nil, err
	}
	c.Set(key, png)
	return png, nil
}
