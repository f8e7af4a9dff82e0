package reftable

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Cache is a thread-safe LRU cache in front of a Source. Hits and
// not-found results are cached; transport errors are not, so a recovering
// backend is retried on the next request.
type Cache struct {
	source  Source
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*cacheEntry
	order   []string // oldest first
	now     func() time.Time
}

type cacheEntry struct {
	value    float64
	notFound bool
	expires  time.Time
}

// NewCache wraps source. If maxSize <= 0 it defaults to 1024; a ttl <= 0
// means entries never expire.
func NewCache(source Source, maxSize int, ttl time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = 1024
	}
	return &Cache{
		source:  source,
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// Lookup implements Source.
func (c *Cache) Lookup(ctx context.Context, table Table, key string) (float64, error) {
	return c.fetch(ctx, "k|"+string(table)+"|"+NormalizeKey(key), func() (float64, error) {
		return c.source.Lookup(ctx, table, key)
	})
}

// PrefixAverage implements Source.
func (c *Cache) PrefixAverage(ctx context.Context, table Table, prefix string) (float64, error) {
	return c.fetch(ctx, "p|"+string(table)+"|"+NormalizeKey(prefix), func() (float64, error) {
		return c.source.PrefixAverage(ctx, table, prefix)
	})
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) fetch(ctx context.Context, id string, load func() (float64, error)) (float64, error) {
	if e, ok := c.get(id); ok {
		if e.notFound {
			return 0, ErrNotFound
		}
		return e.value, nil
	}

	v, err := load()
	switch {
	case err == nil:
		c.put(id, &cacheEntry{value: v})
	case errors.Is(err, ErrNotFound) && ctx.Err() == nil:
		c.put(id, &cacheEntry{notFound: true})
	}
	return v, err
}

func (c *Cache) get(id string) (*cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && c.now().After(entry.expires) {
		c.remove(id)
		return nil, false
	}

	// Move to end (most recently used)
	c.moveToEnd(id)
	return entry, true
}

func (c *Cache) put(id string, entry *cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl > 0 {
		entry.expires = c.now().Add(c.ttl)
	}

	if _, ok := c.entries[id]; ok {
		c.entries[id] = entry
		c.moveToEnd(id)
		return
	}

	// Evict oldest if at capacity
	for len(c.entries) >= c.maxSize && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[id] = entry
	c.order = append(c.order, id)
}

func (c *Cache) remove(id string) {
	delete(c.entries, id)
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *Cache) moveToEnd(id string) {
	for i, k := range c.order {
		if k == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			c.order = append(c.order, id)
			return
		}
	}
}
