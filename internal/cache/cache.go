package cache

import (
	"sync"
	"time"
)

type item struct {
	value   any
	expires time.Time
}

// Cache is a small in-process TTL cache. The employees list handler
// keeps recent list responses here; mutations clear it.
type Cache struct {
	ttl time.Duration

	mu    sync.RWMutex
	items map[string]item
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Cache{
		ttl:   ttl,
		items: make(map[string]item),
	}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	// expire lazily on read
	if time.Now().After(it.expires) {
		c.Delete(key)
		return nil, false
	}

	return it.value, true
}

func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	c.items[key] = item{value: value, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
}
