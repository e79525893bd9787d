// Package store provides an in-process cache of match keys already confirmed
// as downloaded, so the sync loop does not rescan the output directory for
// tracks it has handled during the current run. The filesystem stays
// authoritative; the cache only ever holds positive results.
package store

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	lru "github.com/hashicorp/golang-lru/v2"
)

// KeyCache is a thread-safe set of match keys backed by a Bloom filter for
// cheap negative checks and an LRU for bounded memory.
type KeyCache struct {
	keys                   map[string]struct{}
	bloom                  *bloom.BloomFilter
	lru                    *lru.Cache[string, struct{}]
	mutex                  sync.RWMutex
	maxKeys                int
	bloomFalsePositiveRate float64
}

// NewKeyCache creates a cache holding at most maxKeys entries.
func NewKeyCache(maxKeys int, bloomFalsePositiveRate float64) *KeyCache {
	lruCache, _ := lru.New[string, struct{}](maxKeys)

	if maxKeys < 0 || maxKeys > int(^uint(0)>>1) {
		panic("maxKeys value out of range for uint conversion")
	}
	bloomFilter := bloom.NewWithEstimates(uint(maxKeys), bloomFalsePositiveRate)

	return &KeyCache{
		keys:                   make(map[string]struct{}),
		bloom:                  bloomFilter,
		lru:                    lruCache,
		maxKeys:                maxKeys,
		bloomFalsePositiveRate: bloomFalsePositiveRate,
	}
}

// Has checks if a match key is recorded in the cache.
func (c *KeyCache) Has(key string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if !c.bloom.TestString(key) {
		return false
	}

	_, exists := c.keys[key]
	return exists
}

// Add records a match key.
func (c *KeyCache) Add(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if _, exists := c.keys[key]; exists {
		return
	}

	c.keys[key] = struct{}{}
	c.bloom.AddString(key)
	c.lru.Add(key, struct{}{})

	if len(c.keys) > c.maxKeys {
		c.evictOldest()
	}
}

// Size returns the number of keys currently cached.
func (c *KeyCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.keys)
}

// Clear removes all keys from the cache.
func (c *KeyCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.keys = make(map[string]struct{})
	c.bloom = bloom.NewWithEstimates(uint(c.maxKeys), c.bloomFalsePositiveRate)
	c.lru.Purge()
}

func (c *KeyCache) evictOldest() {
	if c.lru.Len() == 0 {
		return
	}

	oldestKey, _, ok := c.lru.GetOldest()
	if !ok {
		return
	}

	delete(c.keys, oldestKey)
	c.lru.Remove(oldestKey)
}
