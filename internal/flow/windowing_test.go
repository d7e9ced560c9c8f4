package flow

import (
	"testing"
	"time"
)

func TestSnapToStartWeek(t *testing.T) {
	// 2026-03-05 is a Thursday; its week starts Monday 2026-03-02.
	thursday := time.Date(2026, 3, 5, 15, 30, 0, 0, time.UTC)
	got := SnapToStart(thursday, "week")
	want := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("SnapToStart week = %v, want %v", got, want)
	}

	// Sunday belongs to the week that started six days earlier.
	sunday := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	if got := SnapToStart(sunday, "week"); !got.Equal(want) {
		t.Errorf("Sunday snapped to %v, want %v", got, want)
	}
}

func TestSnapToStartMonthAndDay(t *testing.T) {
	ts := time.Date(2026, 3, 17, 12, 0, 0, 0, time.UTC)

	if got := SnapToStart(ts, "month"); !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Month snap = %v", got)
	}
	if got := SnapToStart(ts, "day"); !got.Equal(time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Day snap = %v", got)
	}
}

func TestSubdivideWeeks(t *testing.T) {
	w := NewAnalysisWindow(
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC),
		"week",
	)

	starts := w.Subdivide()
	if len(starts) != 4 {
		t.Fatalf("Expected 4 week buckets, got %d", len(starts))
	}
	for i, s := range starts {
		if s.Weekday() != time.Monday {
			t.Errorf("Bucket %d starts on %v, want Monday", i, s.Weekday())
		}
	}
}

func TestFindBucketIndex(t *testing.T) {
	w := NewAnalysisWindow(
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC),
		"week",
	)

	if idx := w.FindBucketIndex(time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)); idx != 0 {
		t.Errorf("First-week timestamp indexed %d", idx)
	}
	if idx := w.FindBucketIndex(time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)); idx != 1 {
		t.Errorf("Second-week timestamp indexed %d", idx)
	}
	if idx := w.FindBucketIndex(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)); idx != -1 {
		t.Errorf("Out-of-window timestamp indexed %d, want -1", idx)
	}
}

func TestGenerateLabel(t *testing.T) {
	ts := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	if got := (AnalysisWindow{Bucket: "week"}).GenerateLabel(ts); got != "2026-W10" {
		t.Errorf("Week label = %q", got)
	}
	if got := (AnalysisWindow{Bucket: "month"}).GenerateLabel(ts); got != "Mar 2026" {
		t.Errorf("Month label = %q", got)
	}
	if got := (AnalysisWindow{Bucket: "day"}).GenerateLabel(ts); got != "2026-03-02" {
		t.Errorf("Day label = %q", got)
	}
}
