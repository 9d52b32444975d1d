// Package cache provides LRU caching for database file blocks.
package cache

import (
	"container/list"
	"sync"
)

// Cache is a generic LRU cache interface.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)

	// Put stores a value in the cache.
	Put(key K, value V)

	// Remove removes a value from the cache.
	Remove(key K)

	// Clear removes all entries from the cache.
	Clear()

	// Len returns the number of entries in the cache.
	Len() int

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache statistics.
type Stats struct {
	Hits       int64
	Misses     int64
	Evictions  int64
	Size       int
	MaxSize    int
	TotalBytes int64
}

// Config contains cache configuration options.
type Config struct {
	// MaxSize is the maximum number of entries (0 = unlimited).
	MaxSize int

	// OnEvict is called when an entry is evicted.
	OnEvict func(key, value interface{})
}

// DefaultConfig returns a default cache configuration.
func DefaultConfig() Config {
	return Config{
		MaxSize: 64,
		OnEvict: nil,
	}
}

// entry represents a cache entry.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// lruCache is a thread-safe LRU cache implementation.
type lruCache[K comparable, V any] struct {
	mu        sync.RWMutex
	config    Config
	entries   map[K]*list.Element
	evictList *list.List
	stats     Stats
}

// NewLRUCache creates a new LRU cache with the given configuration.
func NewLRUCache[K comparable, V any](config Config) Cache[K, V] {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}

	return &lruCache[K, V]{
		config:    config,
		entries:   make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *lruCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ent, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}

	// Move to front (most recently used)
	c.evictList.MoveToFront(ent)
	c.stats.Hits++
	return ent.Value.(*entry[K, V]).value, true
}

// Put stores a value in the cache.
func (c *lruCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if entry already exists
	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		ent.Value.(*entry[K, V]).value = value
		return
	}

	// Add new entry
	ent := c.evictList.PushFront(&entry[K, V]{key: key, value: value})
	c.entries[key] = ent

	// Evict oldest entry if necessary
	if c.config.MaxSize > 0 && c.evictList.Len() > c.config.MaxSize {
		c.removeOldest()
	}
}

// Remove removes a value from the cache.
func (c *lruCache[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.removeElement(ent)
	}
}

// Clear removes all entries from the cache.
func (c *lruCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.evictList.Init()
	c.stats.Size = 0
}

// Len returns the number of entries in the cache.
func (c *lruCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *lruCache[K, V]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := c.stats
	s.Size = c.evictList.Len()
	s.MaxSize = c.config.MaxSize
	return s
}

// removeOldest removes the oldest entry from the cache.
func (c *lruCache[K, V]) removeOldest() {
	ent := c.evictList.Back()
	if ent != nil {
		c.removeElement(ent)
		c.stats.Evictions++
	}
}

// removeElement removes an element from the cache.
func (c *lruCache[K, V]) removeElement(ent *list.Element) {
	c.evictList.Remove(ent)
	e := ent.Value.(*entry[K, V])
	delete(c.entries, e.key)

	if c.config.OnEvict != nil {
		c.config.OnEvict(e.key, e.value)
	}
}

// BlockCache is a specialized cache for fixed-size file blocks keyed by
// block index. It tracks the total number of cached bytes so callers can
// observe memory held by the pager.
type BlockCache struct {
	cache      Cache[int64, []byte]
	mu         sync.Mutex
	totalBytes int64
}

// NewBlockCache creates a block cache holding at most maxBlocks blocks.
func NewBlockCache(maxBlocks int) *BlockCache {
	bc := &BlockCache{}
	config := Config{
		MaxSize: maxBlocks,
		OnEvict: func(_, value interface{}) {
			if data, ok := value.([]byte); ok {
				bc.mu.Lock()
				bc.totalBytes -= int64(len(data))
				bc.mu.Unlock()
			}
		},
	}
	bc.cache = NewLRUCache[int64, []byte](config)
	return bc
}

// NewDefaultBlockCache creates a block cache with the default block count.
func NewDefaultBlockCache() *BlockCache {
	return NewBlockCache(DefaultConfig().MaxSize)
}

// Get retrieves a block from the cache by its index.
func (c *BlockCache) Get(index int64) ([]byte, bool) {
	return c.cache.Get(index)
}

// Put stores a block in the cache.
func (c *BlockCache) Put(index int64, data []byte) {
	c.mu.Lock()
	c.totalBytes += int64(len(data))
	c.mu.Unlock()
	c.cache.Put(index, data)
}

// Remove removes a block from the cache. Byte accounting happens in the
// eviction callback, which fires for explicit removes as well.
func (c *BlockCache) Remove(index int64) {
	c.cache.Remove(index)
}

// Clear removes all blocks from the cache.
func (c *BlockCache) Clear() {
	c.cache.Clear()
	c.mu.Lock()
	c.totalBytes = 0
	c.mu.Unlock()
}

// Len returns the number of cached blocks.
func (c *BlockCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics including the total cached bytes.
func (c *BlockCache) Stats() Stats {
	stats := c.cache.Stats()
	c.mu.Lock()
	stats.TotalBytes = c.totalBytes
	c.mu.Unlock()
	return stats
}
