package kotare

import (
	"sync/atomic"

	"github.com/dreamware/kotare/internal/wcache"
)

// flushCache drains one write cache into the bucket store.
//
// The cache's lock is held across the whole drain (inside DrainTo), and
// each buffered write takes its target bucket's lock for one upsert.
// That nesting — cache lock, then one bucket lock at a time — is the
// only lock nesting in the table, and it never inverts: nothing in the
// bucket store acquires a cache lock, and flushing never re-enters the
// cache while holding a bucket lock.
//
// Writes drain in insertion order, so when one buffer holds the same key
// twice the later write lands last and wins, exactly as two unbuffered
// sequential writes would.
//
// Safe to call from any goroutine: the owner's flush-on-full, a reader's
// self-flush, and a flush-all from teardown may target the same cache
// concurrently and simply serialize on its lock.
func (t *Table) flushCache(c *wcache.Cache) {
	n := c.DrainTo(func(key string, value uint32) {
		t.store.Upsert(key, value)
	})

	if n > 0 {
		atomic.AddUint64(&t.stats.flushes, 1)
		atomic.AddUint64(&t.stats.flushedWrites, uint64(n))
	}
}

// flushAll drains every registered cache.
//
// The registry lock is used only to snapshot the cache handles and is
// released before the first cache is touched. Holding it across the
// drains would nest registry → cache → bucket for no benefit and couple
// unrelated lock domains; with the snapshot, a concurrent AddEntry
// (cache → bucket) composes with a concurrent flush-all without any
// shared ordering beyond the per-cache and per-bucket locks themselves.
//
// Caches registered after the snapshot are not flushed. For strong reads
// that is within the documented bound (their writes were accepted after
// the read began); teardown callers guarantee quiescence, so at teardown
// the snapshot is complete.
func (t *Table) flushAll() {
	for _, c := range t.registry.Snapshot() {
		t.flushCache(c)
	}
}
