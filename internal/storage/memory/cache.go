package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gift-scanner/internal/storage"
)

// Cache is an in-memory implementation of storage.Cache with real TTL
// semantics. The clock is injectable so expiry can be tested without
// sleeping.
type Cache struct {
	mu   sync.Mutex
	data map[string]cacheEntry
	now  func() time.Time
}

type cacheEntry struct {
	value     []byte
	counter   int64
	isCounter bool
	expiresAt time.Time // zero means no expiry
}

// NewCache creates a new in-memory cache using the wall clock.
func NewCache() *Cache {
	return &Cache{data: make(map[string]cacheEntry), now: time.Now}
}

// NewCacheWithClock creates a cache with an injected clock. Test helper.
func NewCacheWithClock(now func() time.Time) *Cache {
	return &Cache{data: make(map[string]cacheEntry), now: now}
}

// Compile-time interface check.
var _ storage.Cache = (*Cache)(nil)

// live returns the entry for key if present and unexpired, pruning it otherwise.
// Caller must hold mu.
func (c *Cache) live(key string) (cacheEntry, bool) {
	e, ok := c.data[key]
	if !ok {
		return cacheEntry{}, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.data, key)
		return cacheEntry{}, false
	}
	return e, true
}

func (c *Cache) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return c.now().Add(ttl)
}

// GetJSON reads key into dest. Returns (false, nil) on a miss.
func (c *Cache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok || e.isCounter {
		return false, nil
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON writes value under key with a TTL.
func (c *Cache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{value: raw, expiresAt: c.expiry(ttl)}
	return nil
}

// Delete removes a key.
func (c *Cache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
	return nil
}

// Exists reports whether a key is present and unexpired.
func (c *Cache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.live(key)
	return ok, nil
}

// SetNX writes value only when key is absent. Returns true when written.
func (c *Cache) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.live(key); ok {
		return false, nil
	}
	c.data[key] = cacheEntry{value: []byte(value), expiresAt: c.expiry(ttl)}
	return true, nil
}

// Incr atomically increments a counter key, creating it at 1.
func (c *Cache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		e = cacheEntry{isCounter: true}
	}
	e.isCounter = true
	e.counter++
	c.data[key] = e
	return e.counter, nil
}

// Counter reads a counter key, returning 0 when absent or expired.
func (c *Cache) Counter(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		return 0, nil
	}
	return e.counter, nil
}

// Expire sets the TTL on an existing key.
func (c *Cache) Expire(_ context.Context, key string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.live(key)
	if !ok {
		return nil
	}
	e.expiresAt = c.expiry(ttl)
	c.data[key] = e
	return nil
}
