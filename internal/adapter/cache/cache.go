// Package cache keeps short-lived serialized read models in process memory.
package cache

import (
	"errors"
	"github.com/coocood/freecache"
	"time"
)

const megabyte = 1024 * 1024

var ErrNotFound = errors.New("cache entry not found")

// TTLCache stores byte payloads for a fixed time to live. Entries may be
// evicted earlier when the segment they hash to fills up.
type TTLCache struct {
	cache *freecache.Cache
	ttl   time.Duration
}

func New(sizeMB int, ttl time.Duration) *TTLCache {
	if sizeMB <= 0 {
		sizeMB = 1
	}
	return &TTLCache{
		cache: freecache.NewCache(sizeMB * megabyte),
		ttl:   ttl,
	}
}

func (c *TTLCache) Get(key string) ([]byte, error) {
	value, err := c.cache.Get([]byte(key))
	if errors.Is(err, freecache.ErrNotFound) {
		return nil, ErrNotFound
	}
	return value, err
}

func (c *TTLCache) Set(key string, value []byte) error {
	// freecache counts expiry in whole seconds, zero meaning forever.
	seconds := max(int(c.ttl/time.Second), 1)
	return c.cache.Set([]byte(key), value, seconds)
}

func (c *TTLCache) Clear() {
	c.cache.Clear()
}

func (c *TTLCache) TTL() time.Duration {
	return c.ttl
}

// Nop never stores anything. It is used when caching is disabled.
type Nop struct{}

func (Nop) Get(string) ([]byte, error) {
	return nil, ErrNotFound
}

func (Nop) Set(string, []byte) error {
	return nil
}

func (Nop) Clear() {}

func (Nop) TTL() time.Duration {
	return 0
}
