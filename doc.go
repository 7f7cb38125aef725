// Package kotare provides a thread-safe, in-memory key-value table keyed
// by strings, optimized for high write concurrency by interposing a small
// per-goroutine write-combining buffer in front of a sharded,
// lock-per-bucket hash store.
//
// # Overview
//
// A conventional locked map makes every writer contend on shared state.
// Kotare spends that contention twice as carefully: keys are sharded over
// a fixed array of buckets, each with its own lock, and writers do not
// even touch bucket locks on most calls — they append to a private
// bounded buffer and drain it in batches. The cost is a precisely
// documented consistency bound instead of immediate global visibility.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────┐
//	│                       Table                         │
//	├─────────────────────────────────────────────────────┤
//	│                                                     │
//	│  goroutine A        goroutine B        goroutine C  │
//	│      │                  │                  │        │
//	│      ▼                  ▼                  ▼        │
//	│  ┌───────┐          ┌───────┐          ┌───────┐    │
//	│  │ cache │          │ cache │          │ cache │    │
//	│  └───┬───┘          └───┬───┘          └───┬───┘    │
//	│      │     flush (on full / on read /      │        │
//	│      │        flush-all) ───────┐          │        │
//	│      ▼                  ▼       │          ▼        │
//	│  ┌─────────────────────────────────────────────┐    │
//	│  │     bucket store: [b0][b1][b2]...[bN]       │    │
//	│  │     one lock + one entry list per bucket    │    │
//	│  └─────────────────────────────────────────────┘    │
//	│                                                     │
//	│  registry: goroutine id → cache (for flush-all)     │
//	└─────────────────────────────────────────────────────┘
//
// Components:
//   - Bucket store (internal/bucket): the ground truth. Fixed bucket
//     count, per-bucket mutex, singly linked entry lists, at most one
//     entry per key.
//   - Write cache (internal/wcache): per-goroutine bounded buffer of
//     pending writes, created lazily on the goroutine's first AddEntry.
//   - Registry (internal/wcache): table-scoped map from goroutine id to
//     cache, so whole-table flushes can find every buffer.
//   - Hashing (hashing): pluggable key-to-bucket placement.
//
// # Write path
//
// AddEntry appends to the caller's own cache. When the cache is full it
// is first drained: each buffered write takes its target bucket's lock,
// updates the existing entry in place or inserts a new one, and releases
// the lock. Draining preserves insertion order, so the last buffered
// write for a key wins — identical to the outcome of unbuffered
// sequential writes.
//
// # Read path and consistency
//
// Contains and GetValue flush the calling goroutine's cache if dirty,
// then perform one bucket lookup. This yields:
//
//   - Read-your-writes: a goroutine always observes its own prior writes.
//   - Bounded staleness elsewhere: goroutine B observes A's write only
//     after A's cache fills, A reads (flushing itself), or a flush-all
//     runs. Reads never wait on other goroutines' caches; that is the
//     contract, not an oversight.
//
// ContainsStrong trades cost for freshness: it flushes every registered
// cache before the lookup.
//
// # Lock ordering
//
// The table has exactly one permitted nesting order:
//
//	registry lock → (released) → cache lock → bucket lock
//
// The registry lock is only ever held to look up, register, or snapshot
// cache handles, and is released before any cache or bucket lock is
// taken. A cache lock is held across that cache's drain while bucket
// locks are taken one at a time inside it. No code path takes a bucket
// lock and then a cache lock, or a cache lock and then the registry
// lock, so the order cannot invert and the table cannot deadlock against
// itself. Concurrent flushes of the same cache serialize on the cache
// lock; flushes of different caches proceed in parallel.
//
// # Teardown
//
// Drain flushes every registered cache, unregisters them, destructively
// empties every bucket, marks the table closed, and returns the final
// entries — each key exactly once, with its last-written value. Close is
// Drain without the entries. Both require that no other goroutine is
// still using the table; operations on a closed table fail with
// ErrTableClosed (or return false, for the boolean reads) rather than
// racing teardown.
//
// # Errors
//
// ErrKeyNotFound: GetValue on an absent key
//   - Returned after the caller's self-flush, so it is authoritative for
//     the caller's own writes
//   - Another goroutine's buffered write does not prevent it
//
// ErrTableClosed: any operation after Drain/Close
//   - The table is gone; create a new one
//   - Contains/ContainsStrong return false instead
//
// The internal cache-full condition is always absorbed by a self-flush
// and never surfaces.
//
// # Usage
//
//	table, err := kotare.New(kotare.DefaultNumBuckets, kotare.DefaultCacheSize)
//	if err != nil {
//	    log.Fatalf("create table: %v", err)
//	}
//
//	if err := table.AddEntry("user:123", 42); err != nil {
//	    log.Fatalf("write: %v", err)
//	}
//
//	value, err := table.GetValue("user:123") // read-your-writes: 42
//	if err == kotare.ErrKeyNotFound {
//	    log.Println("not found")
//	}
//
//	entries, err := table.Drain() // teardown: all writes, each key once
//	for _, e := range entries {
//	    fmt.Printf("%s = %d\n", e.Key, e.Value)
//	}
//
//	_ = value
//
// # Scope
//
// The table deliberately omits deletion, resizing, iteration, and
// persistence. Bucket count, cache size, and hash function are fixed at
// creation. Writers should be pooled goroutines: each writing goroutine
// owns one cache until teardown.
//
// # Testing
//
// Run with the race detector; the package's guarantees are exactly the
// kind -race exercises:
//
//	go test -race ./...
//	go test -bench=. .
//
// # See Also
//
// Related packages:
//   - hashing: pluggable hash functions
//   - internal/bucket: the sharded store
//   - internal/wcache: write caches and their registry
//   - cmd/kvload: concurrent workload driver
package kotare
