package wcache

import (
	"fmt"
	"sync"
)

// Registry tracks every live write cache created against one table, so
// that flush-all operations (teardown, strong reads) can find each
// goroutine's buffered writes.
//
// The registry holds identities, not lifecycles: it maps a caller identity
// to its cache and hands out references, but never drains or destroys a
// cache itself. Its lifetime is the owning table's, so independent tables
// never see each other's caches.
//
// Architecture:
//
//	┌─────────────────────────────────────┐
//	│             Registry                │
//	├─────────────────────────────────────┤
//	│  caches: map[goroutine id]→*Cache   │
//	│  mu: Mutex for map access           │
//	├─────────────────────────────────────┤
//	│  Snapshot: copy refs out, release   │
//	│  lock, THEN callers drain caches    │
//	└─────────────────────────────────────┘
//
// Concurrency Model:
//   - The map is mutated and read only under the registry's own lock.
//   - Snapshot and RemoveAll copy references out while locked and return
//     after unlocking. Draining a cache requires that cache's lock and
//     then bucket locks; doing that while still holding the registry lock
//     would nest three lock levels for no benefit and couple registry
//     hold time to table hold time. Snapshot-then-act keeps the only
//     permitted order: registry lock → (released) → cache lock → bucket
//     lock.
//
// Thread Safety:
// All methods are safe for concurrent use.
type Registry struct {
	// caches maps a caller identity (goroutine id) to its registered
	// cache. One cache per identity; Register rejects duplicates.
	caches map[int64]*Cache

	// mu protects the caches map.
	mu sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		caches: make(map[int64]*Cache),
	}
}

// Lookup returns the cache registered for id, if any.
func (r *Registry) Lookup(id int64) (*Cache, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.caches[id]
	return c, ok
}

// Register records c as the cache owned by id.
//
// Each identity registers at most once for the registry's lifetime;
// callers are expected to Lookup first and reuse. A duplicate id is a
// caller bug and is rejected rather than silently replacing a cache that
// may still hold buffered writes.
//
// Returns:
//   - nil on success
//   - Error if id already has a registered cache or c is nil
func (r *Registry) Register(id int64, c *Cache) error {
	if c == nil {
		return fmt.Errorf("cannot register nil cache for id %d", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.caches[id]; exists {
		return fmt.Errorf("cache already registered for id %d", id)
	}

	r.caches[id] = c
	return nil
}

// Snapshot returns the current set of registered caches.
//
// The slice is built under the registry lock and the lock is released
// before Snapshot returns, so callers drain the snapshotted caches
// without the registry lock held. Caches registered after the snapshot
// are not included; for flush-all callers that is the documented
// consistency bound, and teardown callers guarantee quiescence anyway.
func (r *Registry) Snapshot() []*Cache {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := make([]*Cache, 0, len(r.caches))
	for _, c := range r.caches {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// RemoveAll unregisters every cache and returns them to the caller.
// Teardown only: after RemoveAll the registry is empty and any identity
// may register again (which the table's closed flag prevents in practice).
func (r *Registry) RemoveAll() []*Cache {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := make([]*Cache, 0, len(r.caches))
	for id, c := range r.caches {
		removed = append(removed, c)
		delete(r.caches, id)
	}
	return removed
}

// Len returns the number of registered caches.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.caches)
}
