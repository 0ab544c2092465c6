package cache

import "sync"

// Cache is a generic LRU cache whose recency clock is the caller's frame
// number. Every Get and Set stamps the entry with the frame it was used in;
// when the cache holds more than its limit, entries with the oldest stamp
// are evicted and handed to the eviction callback.
//
// Cache is safe for concurrent use.
// Cache must not be copied after creation (has mutex).
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	entries   map[K]*cacheEntry[V]
	limit     int
	onEvict   func(K, V)
	evictions uint64
	hits      uint64
	misses    uint64
}

// cacheEntry holds a cached value with the frame it was last used in.
type cacheEntry[V any] struct {
	value V
	frame uint64
}

// New creates a cache holding at most limit entries.
// A limit of 0 means unlimited.
func New[K comparable, V any](limit int) *Cache[K, V] {
	return &Cache[K, V]{
		entries: make(map[K]*cacheEntry[V]),
		limit:   limit,
	}
}

// OnEvict sets the callback invoked for every entry that leaves the cache
// through eviction, Delete or Clear. The callback runs with the cache lock
// held and must not call back into the cache.
func (c *Cache[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get retrieves a value and stamps it as used in frame.
func (c *Cache[K, V]) Get(key K, frame uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	if frame > entry.frame {
		entry.frame = frame
	}
	return entry.value, true
}

// Peek retrieves a value without touching its frame stamp.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return entry.value, true
}

// Set stores a value used in frame. Replacing an existing value does not
// invoke the eviction callback for the old value.
// If the cache exceeds its limit, least recently used entries are evicted;
// the entry just stored is never chosen.
func (c *Cache[K, V]) Set(key K, value V, frame uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry[V]{value: value, frame: frame}
	if c.limit > 0 && len(c.entries) > c.limit {
		c.evictOldest(key)
	}
}

// Delete removes an entry, invoking the eviction callback.
// Returns true if the entry was found.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	delete(c.entries, key)
	if c.onEvict != nil {
		c.onEvict(key, entry.value)
	}
	return true
}

// EvictBefore removes every entry last used before frame and returns how
// many were removed.
func (c *Cache[K, V]) EvictBefore(frame uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, entry := range c.entries {
		if entry.frame < frame {
			c.evictLocked(key, entry)
			n++
		}
	}
	return n
}

// RemoveOldest evicts the least recently used entry other than keep and
// returns it. The eviction callback is invoked.
func (c *Cache[K, V]) RemoveOldest(keep K) (K, V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		oldest K
		entry  *cacheEntry[V]
	)
	for key, e := range c.entries {
		if key == keep {
			continue
		}
		if entry == nil || e.frame < entry.frame {
			oldest, entry = key, e
		}
	}
	if entry == nil {
		var zero V
		return oldest, zero, false
	}
	c.evictLocked(oldest, entry)
	return oldest, entry.value, true
}

// Clear removes all entries, invoking the eviction callback for each.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.onEvict != nil {
		for key, entry := range c.entries {
			c.onEvict(key, entry.value)
		}
	}
	c.entries = make(map[K]*cacheEntry[V])
}

// Len returns the number of entries in the cache.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// Capacity returns the entry limit of the cache.
func (c *Cache[K, V]) Capacity() int {
	return c.limit
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Len:       len(c.entries),
		Capacity:  c.limit,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// evictOldest removes entries until the cache is back at its limit.
// Caller must hold c.mu.
func (c *Cache[K, V]) evictOldest(keep K) {
	for len(c.entries) > c.limit {
		var (
			oldest K
			found  bool
			frame  uint64
		)
		for key, e := range c.entries {
			if key == keep {
				continue
			}
			if !found || e.frame < frame {
				oldest, frame, found = key, e.frame, true
			}
		}
		if !found {
			return
		}
		c.evictLocked(oldest, c.entries[oldest])
	}
}

// evictLocked removes one entry and counts it. Caller must hold c.mu.
func (c *Cache[K, V]) evictLocked(key K, entry *cacheEntry[V]) {
	delete(c.entries, key)
	c.evictions++
	if c.onEvict != nil {
		c.onEvict(key, entry.value)
	}
}

// Stats contains cache statistics.
type Stats struct {
	// Len is the current number of entries.
	Len int
	// Capacity is the entry limit (0 = unlimited).
	Capacity int
	// Hits is the number of Get calls that found an entry.
	Hits uint64
	// Misses is the number of Get calls that found nothing.
	Misses uint64
	// HitRate is the cache hit rate 0.0 to 1.0.
	HitRate float64
	// Evictions is the number of entries removed by the limit or EvictBefore.
	Evictions uint64
}
