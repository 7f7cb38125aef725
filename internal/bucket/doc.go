// Package bucket implements the fixed-size, lock-per-bucket hash store
// that holds the authoritative contents of a kotare table.
//
// # Overview
//
// The store is a flat array of buckets. Each bucket owns a singly linked
// association list and a mutex scoped to exactly that list:
//
//	┌──────────────────────────────────────────────┐
//	│                   Store                      │
//	├──────────┬──────────┬──────────┬─────────────┤
//	│ bucket 0 │ bucket 1 │ bucket 2 │    ...      │
//	│ mu, list │ mu, list │ mu, list │             │
//	└──────────┴──────────┴──────────┴─────────────┘
//	     │
//	     ▼
//	 (k1,v1) → (k2,v2) → nil
//
// Keys are placed by hash(key) % numBuckets using the hashing.Func the
// table was created with. The array never resizes, so placement is stable
// for the table's lifetime.
//
// # Locking
//
// No operation ever holds more than one bucket lock, and every critical
// section is bounded by a single list scan. That makes lock ordering
// trivial (locks are never nested) and keeps worst-case contention
// proportional to how many writers hash onto the same bucket, not to
// table size. Each bucket is padded to the CPU cache line so neighboring
// locks do not false-share.
//
// # Invariants
//
//   - A bucket's list holds at most one entry per key; Upsert performs the
//     whole lookup-or-insert under the bucket's lock to preserve this.
//   - A bucket's list is mutated only under its own lock, and only by
//     Store methods.
//
// # Teardown
//
// Drain empties every bucket and returns the removed entries. It is the
// teardown half of the table's contract: callers get the final entry set
// exactly once, with per-key deduplication already guaranteed by the
// Upsert invariant. Drain assumes writer quiescence.
package bucket
