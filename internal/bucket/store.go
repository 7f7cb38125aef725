// Package bucket implements the sharded bucket store that is the ground
// truth of a kotare table. See doc.go for complete package documentation.
package bucket

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/dreamware/kotare/hashing"
)

// Entry is a key-value pair drained out of the store at teardown.
type Entry struct {
	Key   string // The key as originally written
	Value uint32 // The last value written for the key
}

// node is one link of a bucket's association list.
type node struct {
	key   string
	value uint32
	next  *node
}

// slot is one bucket: a lock and the list it protects.
//
// The list is mutated only while mu is held, and only by Store methods.
// The trailing pad keeps adjacent bucket locks on separate cache lines so
// contention on one bucket does not false-share with its neighbors.
type slot struct {
	mu   sync.Mutex
	head *node
	_    cpu.CacheLinePad
}

// Store is a fixed-size array of buckets, each owning a singly linked
// association list and the lock scoped to exactly that list.
//
// Concurrency model:
//   - Every method acquires at most one bucket lock, held for one list
//     scan at most, so no two Store operations can deadlock against each
//     other and contention is bounded by key distribution.
//   - The bucket array never moves or resizes; placement is fixed at
//     construction as hash(key) % len(buckets).
//
// Thread Safety:
// All methods are safe for concurrent use. Drain is destructive and is
// meant to be called exactly once, by table teardown, after all other
// callers have stopped.
type Store struct {
	slots []slot       // Fixed bucket array
	hash  hashing.Func // Key placement function
	keys  atomic.Int64 // Number of distinct keys stored
}

// New creates a store with n buckets using fn for key placement.
// The caller validates n > 0 and fn != nil; this package does not.
func New(n int, fn hashing.Func) *Store {
	return &Store{
		slots: make([]slot, n),
		hash:  fn,
	}
}

// IndexOf returns the bucket index a key maps to.
func (s *Store) IndexOf(key string) int {
	return int(s.hash(key) % uint32(len(s.slots)))
}

// NumBuckets returns the fixed bucket count.
func (s *Store) NumBuckets() int {
	return len(s.slots)
}

// Lookup returns the value stored for key and whether it is present,
// scanning the key's bucket under that bucket's lock.
func (s *Store) Lookup(key string) (uint32, bool) {
	sl := &s.slots[s.IndexOf(key)]

	sl.mu.Lock()
	defer sl.mu.Unlock()

	for n := sl.head; n != nil; n = n.next {
		if n.key == key {
			return n.value, true
		}
	}
	return 0, false
}

// Upsert stores value under key, updating the existing entry in place if
// the key is already present or prepending a new one otherwise. The whole
// read-modify-write runs under the bucket's lock, so a bucket never holds
// two entries for one key. Returns true if a new entry was inserted.
func (s *Store) Upsert(key string, value uint32) bool {
	sl := &s.slots[s.IndexOf(key)]

	sl.mu.Lock()
	defer sl.mu.Unlock()

	for n := sl.head; n != nil; n = n.next {
		if n.key == key {
			n.value = value
			return false
		}
	}

	sl.head = &node{key: key, value: value, next: sl.head}
	s.keys.Add(1)
	return true
}

// BucketLen returns the number of entries in bucket i. Used for
// distribution reporting; the count is a snapshot taken under the bucket's
// lock.
func (s *Store) BucketLen(i int) int {
	sl := &s.slots[i]

	sl.mu.Lock()
	defer sl.mu.Unlock()

	count := 0
	for n := sl.head; n != nil; n = n.next {
		count++
	}
	return count
}

// Len returns the number of distinct keys currently stored.
func (s *Store) Len() int {
	return int(s.keys.Load())
}

// Drain destructively removes and returns every entry in the store.
//
// Buckets are emptied one at a time under their own locks, in index order.
// After Drain returns, every bucket list is empty and Len reports zero.
// Teardown only: callers must guarantee no concurrent writers, otherwise a
// write landing in an already-drained bucket is lost.
func (s *Store) Drain() []Entry {
	entries := make([]Entry, 0, s.Len())

	for i := range s.slots {
		sl := &s.slots[i]

		sl.mu.Lock()
		for n := sl.head; n != nil; n = n.next {
			entries = append(entries, Entry{Key: n.key, Value: n.value})
			s.keys.Add(-1)
		}
		sl.head = nil
		sl.mu.Unlock()
	}

	return entries
}
