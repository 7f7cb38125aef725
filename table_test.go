package kotare

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/dreamware/kotare/hashing"
)

// TestNew tests table construction and validation.
func TestNew(t *testing.T) {
	t.Run("valid sizes", func(t *testing.T) {
		table, err := New(8, 4)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer table.Close()

		info := table.Info()
		if info.NumBuckets != 8 {
			t.Errorf("Expected 8 buckets, got %d", info.NumBuckets)
		}
		if info.CacheSize != 4 {
			t.Errorf("Expected cache size 4, got %d", info.CacheSize)
		}
	})

	t.Run("invalid bucket count", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			if _, err := New(n, 4); err == nil {
				t.Errorf("New(%d, 4) should fail", n)
			}
		}
	})

	t.Run("invalid cache size", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			if _, err := New(8, n); err == nil {
				t.Errorf("New(8, %d) should fail", n)
			}
		}
	})

	t.Run("nil hash function", func(t *testing.T) {
		if _, err := NewWithHash(8, 4, nil); err == nil {
			t.Error("NewWithHash with nil hash should fail")
		}
	})

	t.Run("explicit hash function", func(t *testing.T) {
		table, err := NewWithHash(8, 4, hashing.Bernstein)
		if err != nil {
			t.Fatalf("NewWithHash failed: %v", err)
		}
		defer table.Close()

		if err := table.AddEntry("key", 1); err != nil {
			t.Fatalf("AddEntry failed: %v", err)
		}
		if !table.Contains("key") {
			t.Error("Expected key to be readable")
		}
	})
}

// TestReadYourWrites verifies that a goroutine always observes its own
// writes, with last-write-wins on overwrites.
func TestReadYourWrites(t *testing.T) {
	t.Run("single write then read", func(t *testing.T) {
		table, _ := New(8, 4)
		defer table.Close()

		if err := table.AddEntry("key1", 7); err != nil {
			t.Fatalf("AddEntry failed: %v", err)
		}

		// The write is still buffered, but this goroutine must see it.
		value, err := table.GetValue("key1")
		if err != nil {
			t.Fatalf("GetValue failed: %v", err)
		}
		if value != 7 {
			t.Errorf("Expected 7, got %d", value)
		}
	})

	t.Run("last write wins", func(t *testing.T) {
		table, _ := New(8, 4)
		defer table.Close()

		for i, v := range []uint32{1, 2, 3, 4, 5, 6, 7} {
			if err := table.AddEntry("key1", v); err != nil {
				t.Fatalf("AddEntry #%d failed: %v", i, err)
			}
			value, err := table.GetValue("key1")
			if err != nil {
				t.Fatalf("GetValue after write #%d failed: %v", i, err)
			}
			if value != v {
				t.Errorf("After writing %d, read %d", v, value)
			}
		}
	})

	t.Run("overwrite is idempotent", func(t *testing.T) {
		table, _ := New(8, 4)
		defer table.Close()

		table.AddEntry("key1", 42)
		table.AddEntry("key1", 42)

		value, err := table.GetValue("key1")
		if err != nil || value != 42 {
			t.Errorf("Expected (42, nil), got (%d, %v)", value, err)
		}

		entries, err := table.Drain()
		if err != nil {
			t.Fatalf("Drain failed: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("Expected 1 entry after duplicate writes, got %d", len(entries))
		}
	})
}

// TestMissingKeys verifies behavior for keys never written.
func TestMissingKeys(t *testing.T) {
	table, _ := New(8, 4)
	defer table.Close()

	table.AddEntry("present", 1)

	if table.Contains("absent") {
		t.Error("Contains should be false for a key never written")
	}

	_, err := table.GetValue("absent")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

// TestFlushOnFull walks the documented fill-and-flush scenario: with
// cache size 4, the 5th write drains the first four into the buckets.
func TestFlushOnFull(t *testing.T) {
	table, _ := New(8, 4)
	defer table.Close()

	writes := []struct {
		key   string
		value uint32
	}{
		{"a", 1}, {"b", 2}, {"c", 3}, {"d", 4},
	}
	for _, w := range writes {
		if err := table.AddEntry(w.key, w.value); err != nil {
			t.Fatalf("AddEntry(%q) failed: %v", w.key, err)
		}
	}

	// Exactly full: nothing flushed yet.
	info := table.Info()
	if info.Keys != 0 {
		t.Errorf("Expected 0 flushed keys before overflow, got %d", info.Keys)
	}
	if info.BufferedWrites != 4 {
		t.Errorf("Expected 4 buffered writes, got %d", info.BufferedWrites)
	}

	// The 5th write forces a flush of the first four.
	if err := table.AddEntry("e", 5); err != nil {
		t.Fatalf("AddEntry(e) failed: %v", err)
	}

	info = table.Info()
	if info.Keys != 4 {
		t.Errorf("Expected 4 flushed keys after overflow, got %d", info.Keys)
	}
	if info.BufferedWrites != 1 {
		t.Errorf("Expected 1 buffered write after overflow, got %d", info.BufferedWrites)
	}

	if !table.Contains("a") {
		t.Error("Expected a to be visible after the flush")
	}

	// A fresh overwrite is visible to this goroutine before the cache
	// fills again, via the self-flush on read.
	table.AddEntry("a", 99)
	value, err := table.GetValue("a")
	if err != nil {
		t.Fatalf("GetValue(a) failed: %v", err)
	}
	if value != 99 {
		t.Errorf("Expected 99 after overwrite, got %d", value)
	}
}

// TestContainsStrong verifies that the strong read observes other
// goroutines' buffered writes.
func TestContainsStrong(t *testing.T) {
	table, _ := New(8, 4)
	defer table.Close()

	// Buffer a single write in another goroutine; one write cannot
	// trigger a flush on its own.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := table.AddEntry("remote", 1); err != nil {
			t.Errorf("AddEntry failed: %v", err)
		}
	}()
	<-done

	if !table.ContainsStrong("remote") {
		t.Error("ContainsStrong should observe another goroutine's buffered write")
	}

	// And the write is now in the buckets for plain reads too.
	if !table.Contains("remote") {
		t.Error("Contains should observe the write after the strong read flushed it")
	}
}

// TestDrain tests the teardown contract.
func TestDrain(t *testing.T) {
	t.Run("buffered writes from several goroutines all drain", func(t *testing.T) {
		table, _ := New(8, 4)

		// 3 goroutines, 2 writes each: all stay buffered (cache holds 4).
		var wg sync.WaitGroup
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 2; j++ {
					key := fmt.Sprintf("g%d-k%d", id, j)
					if err := table.AddEntry(key, uint32(id*10+j)); err != nil {
						t.Errorf("AddEntry failed: %v", err)
					}
				}
			}(i)
		}
		wg.Wait()

		entries, err := table.Drain()
		if err != nil {
			t.Fatalf("Drain failed: %v", err)
		}
		if len(entries) != 6 {
			t.Fatalf("Expected all 6 buffered writes in drained set, got %d", len(entries))
		}

		got := make(map[string]uint32)
		for _, e := range entries {
			if _, dup := got[e.Key]; dup {
				t.Errorf("Key %q drained twice", e.Key)
			}
			got[e.Key] = e.Value
		}
		for i := 0; i < 3; i++ {
			for j := 0; j < 2; j++ {
				key := fmt.Sprintf("g%d-k%d", i, j)
				if got[key] != uint32(i*10+j) {
					t.Errorf("Drained %q = %d, want %d", key, got[key], i*10+j)
				}
			}
		}
	})

	t.Run("same key from many goroutines drains once", func(t *testing.T) {
		table, _ := New(8, 4)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 20; j++ {
					table.AddEntry("contested", uint32(id))
				}
			}(i)
		}
		wg.Wait()

		entries, err := table.Drain()
		if err != nil {
			t.Fatalf("Drain failed: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("Contested key should drain exactly once, got %d entries", len(entries))
		}
	})

	t.Run("drain of empty table", func(t *testing.T) {
		table, _ := New(8, 4)

		entries, err := table.Drain()
		if err != nil {
			t.Fatalf("Drain failed: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("Expected empty drain, got %d entries", len(entries))
		}
	})
}

// TestClosedTable verifies every operation's behavior after teardown.
func TestClosedTable(t *testing.T) {
	table, _ := New(8, 4)
	table.AddEntry("key1", 1)
	if err := table.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := table.AddEntry("key2", 2); !errors.Is(err, ErrTableClosed) {
		t.Errorf("AddEntry on closed table: expected ErrTableClosed, got %v", err)
	}

	if table.Contains("key1") {
		t.Error("Contains on closed table should be false")
	}
	if table.ContainsStrong("key1") {
		t.Error("ContainsStrong on closed table should be false")
	}

	if _, err := table.GetValue("key1"); !errors.Is(err, ErrTableClosed) {
		t.Errorf("GetValue on closed table: expected ErrTableClosed, got %v", err)
	}

	if _, err := table.Drain(); !errors.Is(err, ErrTableClosed) {
		t.Errorf("Second Drain: expected ErrTableClosed, got %v", err)
	}
	if err := table.Close(); !errors.Is(err, ErrTableClosed) {
		t.Errorf("Second Close: expected ErrTableClosed, got %v", err)
	}

	if !table.Info().Closed {
		t.Error("Info should report the table closed")
	}
}

// TestIndependentTables verifies that two tables do not share caches or
// registries: draining one leaves the other untouched.
func TestIndependentTables(t *testing.T) {
	first, _ := New(8, 4)
	second, _ := New(8, 4)
	defer second.Close()

	first.AddEntry("key", 1)
	second.AddEntry("key", 2)

	entries, err := first.Drain()
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Value != 1 {
		t.Errorf("First table drained %v, want [{key 1}]", entries)
	}

	value, err := second.GetValue("key")
	if err != nil || value != 2 {
		t.Errorf("Second table should still hold key=2, got (%d, %v)", value, err)
	}
}

// TestStats verifies the operation counters.
func TestStats(t *testing.T) {
	table, _ := New(8, 2)
	defer table.Close()

	table.AddEntry("a", 1)
	table.AddEntry("b", 2)
	table.AddEntry("c", 3) // Forces a flush of a and b.
	table.GetValue("a")    // Flushes c.
	table.Contains("b")

	stats := table.Stats()
	if stats.Puts != 3 {
		t.Errorf("Expected 3 puts, got %d", stats.Puts)
	}
	if stats.Gets != 2 {
		t.Errorf("Expected 2 gets, got %d", stats.Gets)
	}
	if stats.Flushes != 2 {
		t.Errorf("Expected 2 flushes, got %d", stats.Flushes)
	}
	if stats.FlushedWrites != 3 {
		t.Errorf("Expected 3 flushed writes, got %d", stats.FlushedWrites)
	}
}

// TestDistribution verifies the per-bucket occupancy report.
func TestDistribution(t *testing.T) {
	table, _ := New(8, 4)
	defer table.Close()

	numKeys := 64
	for i := 0; i < numKeys; i++ {
		table.AddEntry(fmt.Sprintf("key-%d", i), uint32(i))
	}
	table.Contains("key-0") // Flush the tail.

	counts := table.Distribution()
	if len(counts) != 8 {
		t.Fatalf("Expected 8 bucket counts, got %d", len(counts))
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != numKeys {
		t.Errorf("Distribution sums to %d, want %d", total, numKeys)
	}
}

// TestConcurrentWriters stresses the full write path across goroutines
// and checks that no write is lost or duplicated.
func TestConcurrentWriters(t *testing.T) {
	table, _ := New(64, 4)

	numGoroutines := 16
	numOps := 250

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := fmt.Sprintf("g%d-k%d", id, j)
				if err := table.AddEntry(key, uint32(j)); err != nil {
					t.Errorf("AddEntry failed: %v", err)
				}
			}
		}(i)
	}

	wg.Wait()

	entries, err := table.Drain()
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}

	expected := numGoroutines * numOps
	if len(entries) != expected {
		t.Errorf("Expected %d entries, got %d", expected, len(entries))
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Key] {
			t.Errorf("Key %q drained twice", e.Key)
		}
		seen[e.Key] = true
	}
}

// TestConcurrentReadersAndWriters runs mixed operations under the race
// detector; the table must stay consistent for each goroutine's own keys.
func TestConcurrentReadersAndWriters(t *testing.T) {
	table, _ := New(64, 4)
	defer table.Close()

	numGoroutines := 8
	numOps := 200

	var wg sync.WaitGroup
	wg.Add(2 * numGoroutines)

	// Writers that re-read their own writes.
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				key := fmt.Sprintf("g%d-k%d", id, j)
				if err := table.AddEntry(key, uint32(j)); err != nil {
					t.Errorf("AddEntry failed: %v", err)
					return
				}
				value, err := table.GetValue(key)
				if err != nil {
					t.Errorf("Lost own write %q: %v", key, err)
					return
				}
				if value != uint32(j) {
					t.Errorf("Own write %q: got %d, want %d", key, value, j)
					return
				}
			}
		}(i)
	}

	// Readers probing other goroutines' keys; any answer is legal, it
	// just must not race.
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < numOps; j++ {
				table.Contains(fmt.Sprintf("g%d-k%d", (id+1)%numGoroutines, j))
			}
		}(i)
	}

	wg.Wait()
}
