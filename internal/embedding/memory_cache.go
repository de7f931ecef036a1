package embedding

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of embeddings held by a MemoryCache
const DefaultCacheSize = 10000

// MemoryCache is an in-process LRU embedding cache
type MemoryCache struct {
	cache *lru.Cache[string, []float32]
}

// NewMemoryCache creates a cache holding at most size embeddings
func NewMemoryCache(size int) *MemoryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &MemoryCache{cache: cache}
}

// Get returns a copy of the cached vector so callers cannot mutate the cache
func (c *MemoryCache) Get(key string) ([]float32, bool) {
	vec, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a copy of vector
func (c *MemoryCache) Set(key string, vector []float32) {
	stored := make([]float32, len(vector))
	copy(stored, vector)
	c.cache.Add(key, stored)
}

// Len returns the number of cached embeddings
func (c *MemoryCache) Len() int {
	return c.cache.Len()
}
