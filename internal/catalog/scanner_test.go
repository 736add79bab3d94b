package catalog

import (
	"sync"
	"testing"
)

// Two concurrent seed batches racing to claim the same file_path must leave
// exactly one winner: one asset_info row created, one asset surviving, and
// no duplicate cache_state row for the path. This exercises the
// winners/losers ON CONFLICT pattern seedFromPathsBatch relies on under
// actual concurrent writers rather than sequential calls.
func TestSeedFromPathsBatch_ConcurrentSamePathRace(t *testing.T) {
	app, _, _ := newFakeApp(t)
	scanner := NewScanner(app, app.log)

	const attempts = 8
	spec := seedSpec{
		AbsPath:   "/roots/input/contested.bin",
		SizeBytes: 42,
		MtimeNs:   1000,
		InfoName:  "contested.bin",
		Tags:      []string{"input"},
	}

	var wg sync.WaitGroup
	createdCounts := make([]int, attempts)
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n, err := scanner.seedFromPathsBatch([]seedSpec{spec}, map[string]bool{"input": true})
			createdCounts[i] = n
			errs[i] = err
		}(i)
	}
	wg.Wait()

	totalCreated := 0
	for i, err := range errs {
		if err != nil {
			t.Fatalf("attempt %d: seedFromPathsBatch: %v", i, err)
		}
		totalCreated += createdCounts[i]
	}
	if totalCreated != 1 {
		t.Errorf("expected exactly one winner across %d concurrent attempts, got %d created rows total", attempts, totalCreated)
	}

	var cacheStateCount, assetInfoCount int
	if err := app.db.QueryRow(`SELECT COUNT(*) FROM asset_cache_state WHERE file_path = ?`, spec.AbsPath).Scan(&cacheStateCount); err != nil {
		t.Fatalf("counting cache states: %v", err)
	}
	if cacheStateCount != 1 {
		t.Errorf("expected exactly one cache_state row for the contested path, got %d", cacheStateCount)
	}
	if err := app.db.QueryRow(`SELECT COUNT(*) FROM asset_info WHERE name = ?`, spec.InfoName).Scan(&assetInfoCount); err != nil {
		t.Fatalf("counting asset_info rows: %v", err)
	}
	if assetInfoCount != 1 {
		t.Errorf("expected exactly one asset_info row for the contested path, got %d", assetInfoCount)
	}
}
