// Package memory provides an in-process embedding cache.
package memory

import (
	"context"
	"sync"
)

// MemoryCache keeps vectors in a map guarded by a RWMutex.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

// NewMemoryCache creates an empty cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float32)}
}

// Get returns a copy of the vector stored under key.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	vec, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return append([]float32(nil), vec...), true, nil
}

// Set stores a copy of vec under key.
func (c *MemoryCache) Set(ctx context.Context, key string, vec []float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = append([]float32(nil), vec...)
	return nil
}

// Len returns the number of entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close drops all entries.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	return nil
}
