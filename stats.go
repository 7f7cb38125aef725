package kotare

import "sync/atomic"

// TableStats holds cumulative operation counters for a table.
type TableStats struct {
	Puts          uint64 // Writes accepted by AddEntry
	Gets          uint64 // Read operations (Contains, GetValue, ContainsStrong)
	Flushes       uint64 // Cache drains that moved at least one write
	FlushedWrites uint64 // Total writes moved from caches into buckets
}

// TableInfo describes a table's current shape and occupancy.
type TableInfo struct {
	NumBuckets     int  // Fixed bucket count
	CacheSize      int  // Per-goroutine write buffer capacity
	Keys           int  // Distinct keys in the bucket store (flushed only)
	Writers        int  // Goroutines with a registered write cache
	BufferedWrites int  // Writes staged in caches, not yet in buckets
	Closed         bool // True after Drain/Close
}

// Stats returns a snapshot of the table's operation counters.
// Lock-free; counters are read with atomic loads.
func (t *Table) Stats() TableStats {
	return TableStats{
		Puts:          atomic.LoadUint64(&t.stats.puts),
		Gets:          atomic.LoadUint64(&t.stats.gets),
		Flushes:       atomic.LoadUint64(&t.stats.flushes),
		FlushedWrites: atomic.LoadUint64(&t.stats.flushedWrites),
	}
}

// Info returns the table's shape and current occupancy.
//
// Keys counts only flushed entries; BufferedWrites counts what is still
// staged in write caches. The two are sampled separately (buffered counts
// take each cache's lock in turn), so under concurrent writing the sum is
// approximate. On a quiescent table it is exact.
func (t *Table) Info() TableInfo {
	buffered := 0
	for _, c := range t.registry.Snapshot() {
		buffered += c.Len()
	}

	return TableInfo{
		NumBuckets:     t.store.NumBuckets(),
		CacheSize:      t.cacheSize,
		Keys:           t.store.Len(),
		Writers:        t.registry.Len(),
		BufferedWrites: buffered,
		Closed:         t.closed.Load(),
	}
}

// Distribution returns the number of flushed entries per bucket, indexed
// by bucket. Diagnostic: buffered writes are not counted, and each bucket
// is sampled under its own lock, so the slice is not an atomic snapshot
// of the whole table.
func (t *Table) Distribution() []int {
	counts := make([]int, t.store.NumBuckets())
	for i := range counts {
		counts[i] = t.store.BucketLen(i)
	}
	return counts
}
