// Package wcache implements the per-caller write-combining cache and the
// registry that tracks every live cache for flush-all.
// See doc.go for complete package documentation.
package wcache

import (
	"errors"
	"sync"
)

// ErrFull is returned by Append when the cache already holds its full
// capacity of buffered writes. Callers flush the cache and retry; the
// error never reaches the table's public API.
var ErrFull = errors.New("write cache is full")

// write is one buffered key-value pair, not yet visible in the bucket
// store.
type write struct {
	key   string
	value uint32
}

// Cache is a bounded, ordered buffer of writes staged by one goroutine.
//
// In steady state only the owning goroutine touches its cache, but a
// flush-all (teardown, strong reads) drains caches from whatever goroutine
// invoked it, so every access goes through the cache's own lock. The lock
// is mandatory, not advisory.
//
// Buffered writes keep their insertion order. Order only matters when the
// same key appears twice in one buffer: draining in order makes the later
// write win downstream, matching what two direct sequential writes would
// have produced.
type Cache struct {
	mu     sync.Mutex // Protects all fields below
	writes []write    // Buffered writes, insertion order, len == live count
	limit  int        // Fixed capacity
	dirty  bool       // True iff len(writes) > 0
}

// NewCache creates an empty cache holding at most capacity writes.
// The caller validates capacity > 0.
func NewCache(capacity int) *Cache {
	return &Cache{
		writes: make([]write, 0, capacity),
		limit:  capacity,
	}
}

// Append stages a write. Returns ErrFull if the cache is at capacity, in
// which case nothing is buffered and the caller must drain first.
func (c *Cache) Append(key string, value uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.writes) == c.limit {
		return ErrFull
	}

	c.writes = append(c.writes, write{key: key, value: value})
	c.dirty = true
	return nil
}

// DrainTo applies sink to every buffered write in insertion order, then
// resets the cache to empty and clean. The cache's lock is held for the
// whole drain, so a concurrent Append either sees the full buffer or the
// empty one, never a partial hand-off: at any instant each write is
// visible in exactly one of the cache or wherever sink delivered it.
//
// sink must not call back into this cache. It may (and in the flush
// protocol does) acquire bucket locks; the lock order "cache before
// bucket" is safe because no bucket operation ever takes a cache lock.
//
// Returns the number of writes drained.
func (c *Cache) DrainTo(sink func(key string, value uint32)) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	drained := len(c.writes)
	for _, w := range c.writes {
		sink(w.key, w.value)
	}

	c.writes = c.writes[:0]
	c.dirty = false
	return drained
}

// IsDirty reports whether the cache holds any buffered writes.
func (c *Cache) IsDirty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

// Len returns the number of buffered writes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

// Cap returns the fixed capacity.
func (c *Cache) Cap() int {
	return c.limit
}
