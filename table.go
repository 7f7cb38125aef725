// Package kotare implements a write-combining, sharded, in-memory
// key-value table. See doc.go for complete package documentation.
package kotare

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/dreamware/kotare/hashing"
	"github.com/dreamware/kotare/internal/bucket"
	"github.com/dreamware/kotare/internal/wcache"
)

const (
	// DefaultNumBuckets is the bucket count used when callers have no
	// sizing information. Large enough that modest workloads rarely
	// contend on a bucket lock.
	DefaultNumBuckets = 1024

	// DefaultCacheSize is the per-goroutine write buffer capacity.
	// Small by design: it bounds both the staleness window other
	// goroutines can observe and the work done by a single flush.
	DefaultCacheSize = 4
)

// Entry is a key-value pair returned by Drain at teardown.
type Entry = bucket.Entry

// Table is a thread-safe map from string keys to uint32 values, optimized
// for many concurrent writers.
//
// Writes are combined: each writing goroutine stages its writes in a
// small private buffer and only touches the shared bucket store when the
// buffer fills, when that goroutine reads, or when a whole-table flush
// runs. This gives writers near-zero contention at the price of a
// documented consistency bound (see Consistency below).
//
// Architecture:
//
//	AddEntry ──► caller's write cache ──(flush)──► bucket store
//	                     ▲                             ▲
//	                registry (flush-all finds every cache)
//
// Consistency:
//   - Read-your-writes: Contains and GetValue first flush the calling
//     goroutine's own buffer, so a goroutine always observes its own
//     prior writes.
//   - Cross-goroutine: a write buffered by goroutine A is not visible to
//     goroutine B until A's buffer fills (CacheSize more writes), or a
//     flush-all runs (ContainsStrong, Drain, Close). There is no timely
//     cross-goroutine freshness guarantee by design.
//
// One write buffer exists per goroutine that has called AddEntry, created
// lazily on first use and held until the table is drained. Buffers are
// keyed by goroutine identity, so a Table must not be written from
// short-lived goroutines spawned in an unbounded stream; use a worker
// pool, as any write-combining scheme assumes.
//
// Teardown:
// Drain (or Close) requires that no other goroutine is still calling
// table operations. It flushes every registered buffer, so every write
// accepted before teardown appears in the drained entry set.
type Table struct {
	store     *bucket.Store    // Ground truth: sharded, lock-per-bucket
	registry  *wcache.Registry // All live write caches for this table
	cacheSize int              // Capacity of each write cache
	closed    atomic.Bool      // Set once by Drain/Close
	stats     opCounters       // Operation counters
}

// opCounters tracks operation counts. Updated with atomics; never locked.
type opCounters struct {
	puts          uint64 // Writes accepted by AddEntry
	gets          uint64 // Contains + GetValue + ContainsStrong calls
	flushes       uint64 // Cache drains that moved at least one write
	flushedWrites uint64 // Total writes moved cache → store
}

// New creates a table with numBuckets buckets and per-goroutine write
// caches holding cacheSize writes, using the default hash function.
//
// Both sizes are fixed for the table's lifetime: the table never resizes
// or rehashes.
//
// Parameters:
//   - numBuckets: bucket count (must be > 0; see DefaultNumBuckets)
//   - cacheSize: write buffer capacity (must be > 0; see DefaultCacheSize)
//
// Returns:
//   - Ready table, or an error describing the invalid size.
func New(numBuckets, cacheSize int) (*Table, error) {
	return NewWithHash(numBuckets, cacheSize, hashing.XXHash)
}

// NewWithHash is New with an explicit hash function, for callers whose
// bucket placement must match an existing layout (see package hashing).
func NewWithHash(numBuckets, cacheSize int, fn hashing.Func) (*Table, error) {
	if numBuckets <= 0 {
		return nil, fmt.Errorf("invalid bucket count %d, must be > 0", numBuckets)
	}
	if cacheSize <= 0 {
		return nil, fmt.Errorf("invalid cache size %d, must be > 0", cacheSize)
	}
	if fn == nil {
		return nil, errors.New("hash function cannot be nil")
	}

	return &Table{
		store:     bucket.New(numBuckets, fn),
		registry:  wcache.NewRegistry(),
		cacheSize: cacheSize,
	}, nil
}

// AddEntry stages a write of value under key.
//
// The write goes into the calling goroutine's own cache (created and
// registered on this goroutine's first write). If the cache is full it is
// flushed into the bucket store first, then the write is buffered. The
// write is immediately visible to this goroutine's reads and becomes
// visible to other goroutines per the Table consistency contract.
//
// AddEntry never waits on another goroutine's cache; the only shared
// locks it can touch are the registry lock (briefly, on the lookup) and,
// on a flush, the bucket locks of the drained keys.
//
// Returns ErrTableClosed after Drain/Close; nil otherwise.
func (t *Table) AddEntry(key string, value uint32) error {
	if t.closed.Load() {
		return ErrTableClosed
	}

	cache, err := t.callerCache()
	if err != nil {
		return err
	}

	if err := cache.Append(key, value); err != nil {
		if !errors.Is(err, wcache.ErrFull) {
			return err
		}
		t.flushCache(cache)
		if err := cache.Append(key, value); err != nil {
			// A freshly drained cache cannot be full; anything else
			// here is a bug worth surfacing, not swallowing.
			return fmt.Errorf("append after flush: %w", err)
		}
	}

	atomic.AddUint64(&t.stats.puts, 1)
	return nil
}

// Contains reports whether key is present in the table.
//
// The calling goroutine's cache is flushed first if dirty, so Contains
// always observes the caller's own writes. Other goroutines' buffered
// writes are NOT flushed; a false result only means "not visible yet"
// for keys another goroutine wrote recently. Use ContainsStrong when that
// distinction matters.
//
// Returns false on a closed table.
func (t *Table) Contains(key string) bool {
	if t.closed.Load() {
		return false
	}

	t.flushCaller()
	atomic.AddUint64(&t.stats.gets, 1)

	_, ok := t.store.Lookup(key)
	return ok
}

// GetValue returns the value stored under key.
//
// Same read path as Contains: the caller's own cache is flushed first,
// other goroutines' caches are not.
//
// Returns:
//   - The value, or ErrKeyNotFound if the key is absent after the
//     self-flush.
//   - ErrTableClosed after Drain/Close.
func (t *Table) GetValue(key string) (uint32, error) {
	if t.closed.Load() {
		return 0, ErrTableClosed
	}

	t.flushCaller()
	atomic.AddUint64(&t.stats.gets, 1)

	value, ok := t.store.Lookup(key)
	if !ok {
		return 0, ErrKeyNotFound
	}
	return value, nil
}

// ContainsStrong is Contains with a whole-table flush first: every
// goroutine's buffered writes accepted before the call become visible.
// Costs one pass over all registered caches and their bucket locks; the
// plain Contains costs at most one cache drain. Returns false on a
// closed table.
func (t *Table) ContainsStrong(key string) bool {
	if t.closed.Load() {
		return false
	}

	t.flushAll()
	atomic.AddUint64(&t.stats.gets, 1)

	_, ok := t.store.Lookup(key)
	return ok
}

// Drain tears the table down and returns its final contents.
//
// Precondition: no other goroutine is concurrently calling any operation
// on this table. Drain flushes every registered write cache, unregisters
// them all, destructively empties every bucket, and marks the table
// closed. Each key written to the table appears exactly once in the
// result, holding the last value written for it.
//
// Returns ErrTableClosed if the table was already drained or closed.
func (t *Table) Drain() ([]Entry, error) {
	if !t.closed.CompareAndSwap(false, true) {
		return nil, ErrTableClosed
	}

	t.flushAll()
	t.registry.RemoveAll()
	return t.store.Drain(), nil
}

// Close drains the table and discards the entries.
func (t *Table) Close() error {
	_, err := t.Drain()
	return err
}

// callerCache returns the calling goroutine's write cache, creating and
// registering it on the goroutine's first write to this table.
//
// The registry lock is taken only for the lookup or the registration and
// released before any cache or bucket lock can be needed, preserving the
// table's single lock-nesting order.
func (t *Table) callerCache() (*wcache.Cache, error) {
	id := goid.Get()

	if cache, ok := t.registry.Lookup(id); ok {
		return cache, nil
	}

	cache := wcache.NewCache(t.cacheSize)
	if err := t.registry.Register(id, cache); err != nil {
		// No other goroutine shares this id, so a duplicate here means
		// the registry's bookkeeping broke.
		return nil, fmt.Errorf("register write cache: %w", err)
	}
	return cache, nil
}

// flushCaller flushes the calling goroutine's cache if it exists and is
// dirty. Goroutines that never wrote have no cache and skip straight to
// the bucket lookup.
func (t *Table) flushCaller() {
	if cache, ok := t.registry.Lookup(goid.Get()); ok && cache.IsDirty() {
		t.flushCache(cache)
	}
}
