package main

import (
	"fmt"
	"testing"

	"github.com/dreamware/kotare"
)

// TestVerify checks the post-drain verification logic against
// hand-constructed drained sets.
func TestVerify(t *testing.T) {
	hotKeys := make([]string, numHotKeys)
	for i := range hotKeys {
		hotKeys[i] = fmt.Sprintf("hot-%02d", i)
	}

	t.Run("clean run passes", func(t *testing.T) {
		// hot=10, ops=200: op indexes j with j%100<10 hit hot keys
		// j%16, so hot keys 0..9 and a wrap from 100..109 → keys 4..13
		// as well. Build the drained set the same way verify predicts.
		const ops, hot = 200, 10
		entries := []kotare.Entry{}
		hotUsed := map[string]bool{}
		for j := 0; j < ops; j++ {
			if j%100 < hot {
				hotUsed[hotKeys[j%len(hotKeys)]] = true
			}
		}
		for key := range hotUsed {
			entries = append(entries, kotare.Entry{Key: key, Value: 1})
		}
		uuidWrites := 3
		for i := 0; i < uuidWrites; i++ {
			entries = append(entries, kotare.Entry{Key: fmt.Sprintf("uuid-%d", i), Value: 1})
		}

		result := verify(entries, uuidWrites, ops, hot, hotKeys)
		if !result.OK {
			t.Errorf("Expected clean verification, got %+v", result)
		}
		if result.ExpectedKeys != result.DrainedKeys {
			t.Errorf("Expected %d drained, got %d", result.ExpectedKeys, result.DrainedKeys)
		}
	})

	t.Run("duplicate key fails", func(t *testing.T) {
		entries := []kotare.Entry{
			{Key: "dup", Value: 1},
			{Key: "dup", Value: 2},
		}
		result := verify(entries, 2, 0, 0, hotKeys)
		if result.OK {
			t.Error("Duplicate key should fail verification")
		}
		if result.DuplicateKeys != 1 {
			t.Errorf("Expected 1 duplicate, got %d", result.DuplicateKeys)
		}
	})

	t.Run("missing hot key fails", func(t *testing.T) {
		// ops=1 with hot=10 touches only hot key 0; drain nothing.
		result := verify(nil, 0, 1, 10, hotKeys)
		if result.OK {
			t.Error("Missing hot key should fail verification")
		}
		if result.MissingHotKeys != 1 {
			t.Errorf("Expected 1 missing hot key, got %d", result.MissingHotKeys)
		}
	})
}

// TestHottestBuckets checks ordering and truncation of the bucket report.
func TestHottestBuckets(t *testing.T) {
	table, err := kotare.New(8, 4)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer table.Close()

	for i := 0; i < 64; i++ {
		table.AddEntry(fmt.Sprintf("key-%d", i), uint32(i))
	}
	table.Contains("key-0") // Flush the tail before sampling.

	top := hottestBuckets(table, 3)
	if len(top) != 3 {
		t.Fatalf("Expected 3 buckets, got %d", len(top))
	}
	for i := 1; i < len(top); i++ {
		if top[i].Entries > top[i-1].Entries {
			t.Errorf("Report not sorted descending at %d: %v", i, top)
		}
	}

	// Asking for more buckets than exist truncates to the bucket count.
	if got := hottestBuckets(table, 100); len(got) != 8 {
		t.Errorf("Expected 8 buckets, got %d", len(got))
	}
}
