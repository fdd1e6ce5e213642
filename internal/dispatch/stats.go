package dispatch

import (
	"slices"
	"sync"
	"time"

	"github.com/dgallion1/guidenav/internal/resolver"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
	failed     bool
}

// StatsSnapshot is a point-in-time aggregate of dispatch latencies for one
// action kind.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// Stats tracks recent action latencies per kind within a rolling window.
type Stats struct {
	mu      sync.Mutex
	samples map[resolver.Kind][]sample
	maxAge  time.Duration
}

func NewStats(maxAge time.Duration) *Stats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &Stats{
		samples: make(map[resolver.Kind][]sample),
		maxAge:  maxAge,
	}
}

// Record adds one completed action.
func (s *Stats) Record(kind resolver.Kind, d time.Duration, failed bool) {
	durationMs := d.Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(kind, now)
	s.samples[kind] = append(s.samples[kind], sample{
		timestamp:  now,
		durationMs: durationMs,
		failed:     failed,
	})
}

// Snapshot aggregates every kind with at least one sample in the window,
// keyed by kind name.
func (s *Stats) Snapshot() map[string]StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(s.samples))
	for kind := range s.samples {
		s.pruneLocked(kind, now)
		if snap := aggregate(s.samples[kind]); snap.Count > 0 {
			out[kind.String()] = snap
		}
	}
	return out
}

func aggregate(samples []sample) StatsSnapshot {
	if len(samples) == 0 {
		return StatsSnapshot{}
	}

	values := make([]int64, 0, len(samples))
	var sum int64
	var failures int
	for _, sm := range samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
		if sm.failed {
			failures++
		}
	}
	slices.Sort(values)

	return StatsSnapshot{
		Count:    len(values),
		Failures: failures,
		MinMs:    values[0],
		MaxMs:    values[len(values)-1],
		AvgMs:    float64(sum) / float64(len(values)),
		P50Ms:    percentile(values, 50),
		P95Ms:    percentile(values, 95),
		P99Ms:    percentile(values, 99),
	}
}

func (s *Stats) pruneLocked(kind resolver.Kind, now time.Time) {
	cutoff := now.Add(-s.maxAge)
	kept := s.samples[kind][:0]
	for _, sm := range s.samples[kind] {
		if !sm.timestamp.Before(cutoff) {
			kept = append(kept, sm)
		}
	}
	if len(kept) == 0 {
		delete(s.samples, kind)
		return
	}
	s.samples[kind] = kept
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sortedValues []int64, pct float64) float64 {
	n := len(sortedValues)
	switch {
	case n == 0:
		return 0
	case pct <= 0:
		return float64(sortedValues[0])
	case pct >= 100:
		return float64(sortedValues[n-1])
	}

	index := (float64(n-1) * pct) / 100.0
	lower := int(index)
	if lower+1 >= n {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[lower+1])
	return lo + (hi-lo)*weight
}
