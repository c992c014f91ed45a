package sequence

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	seq int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.seq
	return nil
}

// fakeCounters reproduces the upsert-increment semantics in memory.
type fakeCounters struct {
	mu       sync.Mutex
	seqs     map[string]int64
	failures int
}

func (f *fakeCounters) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return fakeRow{err: errors.New("counter increment conflict")}
	}
	if f.seqs == nil {
		f.seqs = make(map[string]int64)
	}
	name := args[0].(string)
	f.seqs[name]++
	return fakeRow{seq: f.seqs[name]}
}

func TestNextConcurrentAllocations(t *testing.T) {
	t.Parallel()

	const workers = 100
	counters := &fakeCounters{seqs: map[string]int64{CounterTicket: 40}}

	results := make([]int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			seq, err := Next(context.Background(), counters, CounterTicket)
			if err != nil {
				t.Errorf("Next: %v", err)
				return
			}
			results[slot] = seq
		}(i)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	for i, seq := range results {
		if want := int64(41 + i); seq != want {
			t.Fatalf("ordinal %d = %d, want %d (duplicates or gaps)", i, seq, want)
		}
	}
}

func TestNextRetriesOnce(t *testing.T) {
	t.Parallel()

	counters := &fakeCounters{failures: 1}
	seq, err := Next(context.Background(), counters, CounterRequester)
	if err != nil {
		t.Fatalf("Next after single failure: %v", err)
	}
	if seq != 1 {
		t.Fatalf("seq = %d, want 1", seq)
	}
}

func TestNextFailsAfterSecondError(t *testing.T) {
	t.Parallel()

	counters := &fakeCounters{failures: 2}
	if _, err := Next(context.Background(), counters, CounterManager); err == nil {
		t.Fatal("expected error when increment and retry both fail")
	}
	// The retry budget is spent; the next call succeeds normally.
	if _, err := Next(context.Background(), counters, CounterManager); err != nil {
		t.Fatalf("subsequent Next: %v", err)
	}
}

func TestFormatID(t *testing.T) {
	t.Parallel()

	cases := []struct {
		prefix string
		seq    int64
		want   string
	}{
		{PrefixTicket, 1, "TKT-000001"},
		{PrefixRequester, 42, "REQ-000042"},
		{PrefixManager, 999999, "MGR-999999"},
		{PrefixCoordinator, 1234567, "CRD-1234567"},
	}
	for _, tc := range cases {
		if got := FormatID(tc.prefix, tc.seq); got != tc.want {
			t.Errorf("FormatID(%q, %d) = %q, want %q", tc.prefix, tc.seq, got, tc.want)
		}
	}
}
