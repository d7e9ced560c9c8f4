package flow

import (
	"fmt"
	"math"
	"time"
)

// AnalysisWindow defines the temporal context for bucketed series such as
// the weekly throughput history.
type AnalysisWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Bucket string    `json:"bucket"` // "day", "week", "month"
}

// NewAnalysisWindow creates a window with boundaries snapped to whole
// buckets.
func NewAnalysisWindow(start, end time.Time, bucket string) AnalysisWindow {
	if bucket == "" {
		bucket = "week"
	}
	return AnalysisWindow{
		Start:  SnapToStart(start, bucket),
		End:    SnapToEnd(end, bucket),
		Bucket: bucket,
	}
}

// SnapToStart normalizes a timestamp to the beginning of its bucket.
func SnapToStart(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case "week":
		// Snap to Monday
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7 // Sunday -> 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, t.Location())
	default: // day
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// SnapToEnd normalizes a timestamp to the very end of its bucket.
func SnapToEnd(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case "month":
		nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
		return nextMonth.Add(-time.Nanosecond)
	case "week":
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()+(7-weekday), 23, 59, 59, 999999999, t.Location())
	default: // day
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
	}
}

// Subdivide returns the start time of every bucket within the window.
func (w AnalysisWindow) Subdivide() []time.Time {
	var buckets []time.Time
	current := w.Start
	for current.Before(w.End) {
		buckets = append(buckets, current)
		switch w.Bucket {
		case "month":
			current = current.AddDate(0, 1, 0)
		case "week":
			current = current.AddDate(0, 0, 7)
		default:
			current = current.AddDate(0, 0, 1)
		}
	}
	return buckets
}

// FindBucketIndex returns the index of the bucket containing t, or -1 when
// t falls outside the window.
func (w AnalysisWindow) FindBucketIndex(t time.Time) int {
	tNorm := SnapToStart(t, w.Bucket)
	if tNorm.Before(w.Start) || tNorm.After(w.End) {
		return -1
	}

	switch w.Bucket {
	case "month":
		return (tNorm.Year()-w.Start.Year())*12 + int(tNorm.Month()-w.Start.Month())
	case "week":
		// Integer division on hours avoids floating point drift.
		return int(tNorm.Sub(w.Start).Hours() / (24 * 7))
	default:
		return int(tNorm.Sub(w.Start).Hours() / 24)
	}
}

// DayCount returns the number of calendar days in the window.
func (w AnalysisWindow) DayCount() int {
	return int(math.Ceil(w.End.Sub(w.Start).Hours() / 24.0))
}

// GenerateLabel returns a human-readable label for a bucket start.
func (w AnalysisWindow) GenerateLabel(t time.Time) string {
	switch w.Bucket {
	case "month":
		return t.Format("Jan 2006")
	case "week":
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return t.Format("2006-01-02")
	}
}
