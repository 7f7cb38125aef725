// Command kvload drives a concurrent write-heavy workload against a
// kotare table, verifies the teardown contract, and prints a JSON report.
//
// Usage:
//
//	kvload -workers 8 -ops 100000 -buckets 1024 -cache 4 -hot 10
//
// Each worker goroutine writes uuid-keyed entries into its own write
// cache; a configurable share of writes goes to a small shared hot-key
// set so bucket locks and last-write-wins actually get exercised. After
// the run the table is drained and the drained set is checked for lost
// and duplicated keys.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/exp/slices"

	"github.com/dreamware/kotare"
)

// numHotKeys is the size of the shared hot-key set all workers write to.
const numHotKeys = 16

func main() {
	var (
		workers  = flag.Int("workers", envInt("KVLOAD_WORKERS", 8), "concurrent writer goroutines")
		ops      = flag.Int("ops", 100000, "writes per worker")
		buckets  = flag.Int("buckets", kotare.DefaultNumBuckets, "table bucket count")
		cache    = flag.Int("cache", kotare.DefaultCacheSize, "per-goroutine write cache size")
		hot      = flag.Int("hot", 10, "percent of writes aimed at the shared hot keys")
		topN     = flag.Int("top", 10, "hottest buckets to include in the report")
		quiet    = flag.Bool("quiet", false, "suppress progress logging")
		jsonOnly = flag.Bool("json", false, "print only the JSON report")
	)
	flag.Parse()

	if *hot < 0 || *hot > 100 {
		log.Fatalf("-hot must be in [0,100], got %d", *hot)
	}

	table, err := kotare.New(*buckets, *cache)
	if err != nil {
		log.Fatalf("create table: %v", err)
	}

	if !*quiet && !*jsonOnly {
		log.Printf("kvload: %d workers x %d ops, %d buckets, cache %d, %d%% hot",
			*workers, *ops, *buckets, *cache, *hot)
	}

	hotKeys := make([]string, numHotKeys)
	for i := range hotKeys {
		hotKeys[i] = fmt.Sprintf("hot-%02d", i)
	}

	start := time.Now()
	uuidWrites := runWorkers(table, *workers, *ops, *hot, hotKeys)
	elapsed := time.Since(start)

	stats := table.Stats()
	info := table.Info()
	top := hottestBuckets(table, *topN)

	entries, err := table.Drain()
	if err != nil {
		log.Fatalf("drain: %v", err)
	}

	result := verify(entries, uuidWrites, *ops, *hot, hotKeys)

	rep := report{
		Workers:       *workers,
		OpsPerWorker:  *ops,
		Buckets:       *buckets,
		CacheSize:     *cache,
		HotPercent:    *hot,
		Duration:      elapsed.String(),
		WritesPerSec:  float64(stats.Puts) / elapsed.Seconds(),
		Puts:          stats.Puts,
		Flushes:       stats.Flushes,
		FlushedWrites: stats.FlushedWrites,
		Writers:       info.Writers,
		DrainedKeys:   len(entries),
		TopBuckets:    top,
		Verification:  result,
	}

	out, err := sonnet.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatalf("encode report: %v", err)
	}
	fmt.Println(string(out))

	if !result.OK {
		os.Exit(1)
	}
}

// runWorkers runs the workload and returns the total number of unique
// uuid-keyed writes performed across all workers.
func runWorkers(table *kotare.Table, workers, ops, hot int, hotKeys []string) int {
	var wg sync.WaitGroup
	wg.Add(workers)

	uuidCounts := make([]int, workers)

	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < ops; j++ {
				var key string
				if hot > 0 && j%100 < hot {
					key = hotKeys[j%len(hotKeys)]
				} else {
					key = uuid.NewString()
					uuidCounts[id]++
				}
				if err := table.AddEntry(key, uint32(j)); err != nil {
					log.Fatalf("worker %d: AddEntry: %v", id, err)
				}
			}
		}(w)
	}

	wg.Wait()

	total := 0
	for _, c := range uuidCounts {
		total += c
	}
	return total
}

// hottestBuckets returns the topN most occupied buckets, descending.
// Buffered writes are flushed by Drain afterwards, so this is sampled
// on the pre-drain table for reporting only.
func hottestBuckets(table *kotare.Table, topN int) []bucketLoad {
	counts := table.Distribution()

	loads := make([]bucketLoad, len(counts))
	for i, c := range counts {
		loads[i] = bucketLoad{Bucket: i, Entries: c}
	}
	slices.SortFunc(loads, func(a, b bucketLoad) int {
		return b.Entries - a.Entries
	})

	if topN > len(loads) {
		topN = len(loads)
	}
	return loads[:topN]
}

// verify checks the drained entry set against what the workload wrote:
// no key twice, every hot key present (when hot writes ran), and the
// total matching unique uuid keys plus the hot keys actually used.
func verify(entries []kotare.Entry, uuidWrites, ops, hot int, hotKeys []string) verification {
	result := verification{OK: true}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.Key] {
			result.OK = false
			result.DuplicateKeys++
		}
		seen[e.Key] = true
	}

	// Hot-key selection is deterministic per op index, so the set of hot
	// keys every worker touched is computable without tracking.
	hotUsed := make(map[string]bool)
	if hot > 0 {
		for j := 0; j < ops; j++ {
			if j%100 < hot {
				hotUsed[hotKeys[j%len(hotKeys)]] = true
			}
		}
	}
	for key := range hotUsed {
		if !seen[key] {
			result.OK = false
			result.MissingHotKeys++
		}
	}

	expected := uuidWrites + len(hotUsed)
	result.ExpectedKeys = expected
	result.DrainedKeys = len(entries)
	if len(entries) != expected {
		result.OK = false
	}

	return result
}

// report is the JSON document kvload prints after a run.
type report struct {
	Workers       int          `json:"workers"`
	OpsPerWorker  int          `json:"ops_per_worker"`
	Buckets       int          `json:"buckets"`
	CacheSize     int          `json:"cache_size"`
	HotPercent    int          `json:"hot_percent"`
	Duration      string       `json:"duration"`
	WritesPerSec  float64      `json:"writes_per_sec"`
	Puts          uint64       `json:"puts"`
	Flushes       uint64       `json:"flushes"`
	FlushedWrites uint64       `json:"flushed_writes"`
	Writers       int          `json:"writers"`
	DrainedKeys   int          `json:"drained_keys"`
	TopBuckets    []bucketLoad `json:"top_buckets"`
	Verification  verification `json:"verification"`
}

// bucketLoad is one bucket's occupancy in the report.
type bucketLoad struct {
	Bucket  int `json:"bucket"`
	Entries int `json:"entries"`
}

// verification summarizes the post-drain consistency checks.
type verification struct {
	OK             bool `json:"ok"`
	ExpectedKeys   int  `json:"expected_keys"`
	DrainedKeys    int  `json:"drained_keys"`
	DuplicateKeys  int  `json:"duplicate_keys"`
	MissingHotKeys int  `json:"missing_hot_keys"`
}

// envInt reads an integer from the environment, falling back to def.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
