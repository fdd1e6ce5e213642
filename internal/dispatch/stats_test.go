package dispatch

import (
	"testing"
	"time"

	"github.com/dgallion1/guidenav/internal/resolver"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for _, ms := range []int64{100, 200, 300, 400, 500} {
		stats.Record(resolver.OpenDocument, time.Duration(ms)*time.Millisecond, false)
	}

	snap, ok := stats.Snapshot()["open_document"]
	if !ok {
		t.Fatal("expected open_document stats")
	}
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Fatalf("expected min=100 max=500, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Fatalf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Fatalf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Fatalf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Fatalf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestStatsSeparatesKindsAndCountsFailures(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(resolver.OpenNotebook, 10*time.Millisecond, true)
	stats.Record(resolver.OpenNotebook, 20*time.Millisecond, false)
	stats.Record(resolver.RunDependencyCheck, time.Millisecond, false)

	snap := stats.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(snap))
	}
	if nb := snap["open_notebook"]; nb.Count != 2 || nb.Failures != 1 {
		t.Fatalf("expected count=2 failures=1, got count=%d failures=%d", nb.Count, nb.Failures)
	}
	if _, ok := snap["open_document"]; ok {
		t.Fatal("expected no entry for a kind without samples")
	}
}

func TestStatsPrunesExpiredSamples(t *testing.T) {
	stats := NewStats(10 * time.Millisecond)
	stats.Record(resolver.OpenDocument, 100*time.Millisecond, false)
	time.Sleep(25 * time.Millisecond)

	if snap := stats.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected empty snapshot after prune, got %v", snap)
	}

	stats.Record(resolver.OpenDocument, 200*time.Millisecond, false)
	snap := stats.Snapshot()["open_document"]
	if snap.Count != 1 {
		t.Fatalf("expected count=1 for fresh sample, got %d", snap.Count)
	}
	if snap.MinMs != 200 || snap.MaxMs != 200 {
		t.Fatalf("expected min=max=200, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}

func TestStatsRecordClampsNegativeDuration(t *testing.T) {
	stats := NewStats(time.Hour)
	stats.Record(resolver.NoOp, -10*time.Millisecond, false)
	snap := stats.Snapshot()["noop"]
	if snap.Count != 1 {
		t.Fatalf("expected count=1, got %d", snap.Count)
	}
	if snap.MinMs != 0 || snap.MaxMs != 0 {
		t.Fatalf("expected clamped duration=0, got min=%d max=%d", snap.MinMs, snap.MaxMs)
	}
}
