// Package hashing defines the hash function contract for kotare tables and
// ships three interchangeable implementations.
//
// # Overview
//
// A kotare table places each key in a fixed bucket computed as
// hash(key) % numBuckets. The hash function is therefore part of the
// table's identity: two tables only agree on placement if they use the same
// Func, and a table must use one Func for its whole lifetime.
//
// # Implementations
//
// XXHash: XXH64 folded to 32 bits (github.com/cespare/xxhash/v2)
//   - Default for new tables
//   - Fastest on realistic key lengths
//
// FNV32a: standard library FNV-1a
//   - No third-party dependency
//   - Adequate spread, slower on long keys
//
// Bernstein: DJB2 (hash*33 + c)
//   - Matches historical placements computed with DJB2
//   - Weakest spread of the three; compatibility only
//
// # Choosing a function
//
// Unless a data set's placement must match an existing DJB2 layout, use the
// default. All three satisfy the only hard requirements: determinism and
// safety for concurrent use.
package hashing
