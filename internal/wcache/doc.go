// Package wcache implements write combining for kotare tables: a small
// bounded buffer of pending writes per calling goroutine, plus a registry
// that lets whole-table operations find every buffer.
//
// # Overview
//
// High write concurrency on a sharded table is limited by how often
// writers touch shared locks. The write cache moves that cost off the hot
// path: a writer appends to its own cache under its own lock (uncontended
// in steady state) and only touches bucket locks when the cache fills and
// drains, amortizing bucket-lock traffic over the cache capacity.
//
//	writer goroutine           table-wide operations
//	      │                            │
//	      ▼                            ▼
//	┌───────────┐   Snapshot()   ┌───────────┐
//	│   Cache   │◄───────────────│ Registry  │
//	│ (bounded) │                │ id→cache  │
//	└───────────┘                └───────────┘
//	      │ DrainTo
//	      ▼
//	 bucket store
//
// # Why the cache has a lock at all
//
// A cache belongs to one goroutine, but it is not private: flush-all
// (teardown, strong reads) drains caches from whichever goroutine asked.
// The cache lock is what makes that drain safe, and DrainTo holds it
// across the whole drain so there is never an instant where a buffered
// write is visible in both the cache and the store, or in neither.
//
// # Lock ordering
//
// The package participates in the table's single nesting rule:
//
//	registry lock → (released) → cache lock → bucket lock
//
// Registry methods never touch a cache lock; they copy references out and
// release the registry lock before returning. DrainTo's sink may acquire
// bucket locks while the cache lock is held; nothing in the bucket store
// ever acquires a cache lock, so the order cannot invert.
//
// # Consistency
//
// A buffered write is invisible to every other goroutine until its cache
// drains. The owning goroutine gets read-your-writes because the table's
// read path drains the caller's own dirty cache first. Neither property
// is this package's job alone: it supplies the bounded buffer, the dirty
// flag, and ordered atomic draining; the table composes them.
package wcache
