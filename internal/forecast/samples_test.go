package forecast

import (
	"testing"
	"time"

	"flowlens/internal/flow"
)

func TestSamplesFromBucketsExcludesCurrentWeek(t *testing.T) {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC) // a Monday
	buckets := []flow.ThroughputBucket{
		{WeekStarting: start, Count: 3},
		{WeekStarting: start.AddDate(0, 0, 7), Count: 4},
		{WeekStarting: start.AddDate(0, 0, 14), Count: 2},
		{WeekStarting: start.AddDate(0, 0, 21), Count: 1}, // week in progress
	}
	asOf := start.AddDate(0, 0, 23) // Wednesday of the last week

	samples := SamplesFromBuckets(buckets, asOf)
	if len(samples) != 3 {
		t.Fatalf("Expected 3 samples with the accruing week dropped, got %d: %v", len(samples), samples)
	}
	for i, want := range []int{3, 4, 2} {
		if samples[i] != want {
			t.Errorf("samples[%d] = %d, want %d", i, samples[i], want)
		}
	}
}

func TestSamplesFromBucketsKeepsClosedWeeks(t *testing.T) {
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	buckets := []flow.ThroughputBucket{
		{WeekStarting: start, Count: 3},
		{WeekStarting: start.AddDate(0, 0, 7), Count: 4},
	}
	// asOf after the last bucket's week has closed: nothing is dropped.
	asOf := start.AddDate(0, 0, 14)

	if samples := SamplesFromBuckets(buckets, asOf); len(samples) != 2 {
		t.Errorf("Expected all closed weeks kept, got %v", samples)
	}
}

func TestRemainingBacklog(t *testing.T) {
	if got := RemainingBacklog(20, 12, 3); got != 5 {
		t.Errorf("RemainingBacklog(20,12,3) = %d, want 5", got)
	}
	if got := RemainingBacklog(5, 6, 1); got != 0 {
		t.Errorf("Overcounted completions must clamp to 0, got %d", got)
	}
}
