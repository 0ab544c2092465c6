// Package cache provides a generic LRU cache keyed by frame number.
//
// Entries are stamped with the frame in which they were last used, so
// eviction order follows rendering activity rather than wall-clock time:
//
//	c := cache.New[*volume.Image, *entry](8)
//	c.OnEvict(func(_ *volume.Image, e *entry) { e.release() })
//	c.Set(img, e, frame)
//	e, ok := c.Get(img, frame)
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
