package flow

import (
	"sort"
	"time"

	"flowlens/internal/workitem"
)

// VariabilityTiers grades the coefficient of variation of a throughput
// series into stability tiers.
type VariabilityTiers struct {
	Stable   float64 `json:"stable" yaml:"stable"`
	Moderate float64 `json:"moderate" yaml:"moderate"`
	High     float64 `json:"high" yaml:"high"`
}

// DefaultVariabilityTiers returns the standard 20/40/60 tiering.
func DefaultVariabilityTiers() VariabilityTiers {
	return VariabilityTiers{Stable: 0.20, Moderate: 0.40, High: 0.60}
}

// Variability tier labels.
const (
	TierStable        = "stable"
	TierModerate      = "moderate"
	TierHigh          = "high"
	TierExtreme       = "extreme"
	TierIndeterminate = "indeterminate"
)

// ThroughputBucket is one weekly sample of delivered volume.
type ThroughputBucket struct {
	WeekStarting time.Time `json:"weekStarting"`
	Count        int       `json:"count"`
}

// VariabilityResult carries the CV of the weekly throughput series and its
// stability tier. CV is nil when the series mean is zero.
type VariabilityResult struct {
	Buckets []ThroughputBucket `json:"buckets,omitempty"`
	CV      *float64           `json:"coefficient_of_variation,omitempty"`
	Tier    string             `json:"tier"`
}

// TrendResult compares a trailing window against the preceding one.
type TrendResult struct {
	TrailingValue  float64  `json:"trailing_value"`
	PrecedingValue float64  `json:"preceding_value"`
	Ratio          *float64 `json:"ratio,omitempty"`
	Flagged        bool     `json:"flagged"`
}

// WIPSnapshot is the reconstructed active-item count at one instant.
type WIPSnapshot struct {
	At    time.Time `json:"at"`
	Count int       `json:"count"`
}

// CategoryDwell is one entry of the per-category dwell-time ranking.
type CategoryDwell struct {
	Category    string  `json:"category"`
	AverageDays float64 `json:"average_days"`
	Samples     int     `json:"samples"`
}

// BuildWeeklyThroughput buckets completion dates into the window's weeks.
func BuildWeeklyThroughput(items []workitem.NormalizedWorkItem, window AnalysisWindow) []ThroughputBucket {
	starts := window.Subdivide()
	buckets := make([]ThroughputBucket, len(starts))
	for i, s := range starts {
		buckets[i] = ThroughputBucket{WeekStarting: s}
	}

	for _, item := range items {
		if item.DoneAt == nil {
			continue
		}
		idx := window.FindBucketIndex(*item.DoneAt)
		if idx >= 0 && idx < len(buckets) {
			buckets[idx].Count++
		}
	}

	return buckets
}

// CalculateVariability computes the coefficient of variation of a bucketed
// series and grades it. A zero-mean series is indeterminate, never an error.
func CalculateVariability(buckets []ThroughputBucket, tiers VariabilityTiers) VariabilityResult {
	result := VariabilityResult{Buckets: buckets, Tier: TierIndeterminate}
	if len(buckets) == 0 {
		return result
	}

	values := make([]float64, len(buckets))
	for i, b := range buckets {
		values[i] = float64(b.Count)
	}

	mean, stddev := MeanStddev(values)
	if mean <= 0 {
		return result
	}

	cv := Round2(stddev / mean)
	result.CV = &cv

	switch {
	case cv <= tiers.Stable:
		result.Tier = TierStable
	case cv <= tiers.Moderate:
		result.Tier = TierModerate
	case cv <= tiers.High:
		result.Tier = TierHigh
	default:
		result.Tier = TierExtreme
	}

	return result
}

// DetectDecliningThroughput flags a trailing window completing fewer than
// 80% of the items delivered in the preceding window of the same length.
func DetectDecliningThroughput(items []workitem.NormalizedWorkItem, windowDays int, asOf time.Time) TrendResult {
	countIn := func(start, end time.Time) int {
		n := 0
		for _, item := range items {
			if item.DoneAt != nil && item.DoneAt.After(start) && !item.DoneAt.After(end) {
				n++
			}
		}
		return n
	}

	trailing := countIn(asOf.AddDate(0, 0, -windowDays), asOf)
	preceding := countIn(asOf.AddDate(0, 0, -2*windowDays), asOf.AddDate(0, 0, -windowDays))

	result := TrendResult{
		TrailingValue:  float64(trailing),
		PrecedingValue: float64(preceding),
	}
	if preceding > 0 {
		r := Round2(float64(trailing) / float64(preceding))
		result.Ratio = &r
		result.Flagged = float64(trailing) < 0.8*float64(preceding)
	}
	return result
}

// BuildWIPSeries reconstructs historical active-item counts at each bucket
// boundary from resolved active-entry and done dates. Items whose active
// date is the estimated fallback and that never actually started (not active
// now, never done) are excluded: counting them would report queued backlog
// as WIP and disagree with CalculateWIP at the window end.
func BuildWIPSeries(items []workitem.NormalizedWorkItem, window AnalysisWindow) []WIPSnapshot {
	starts := window.Subdivide()
	series := make([]WIPSnapshot, len(starts))
	for i, at := range starts {
		count := 0
		for _, item := range items {
			if item.ActiveAt == nil || item.ActiveAt.After(at) {
				continue
			}
			if item.DoneAt != nil && !item.DoneAt.After(at) {
				continue
			}
			if item.IsCancelled {
				continue
			}
			if item.HasAnomaly(workitem.AnomalyActiveFallback) && !item.IsActive && !item.IsDone {
				continue
			}
			count++
		}
		series[i] = WIPSnapshot{At: at, Count: count}
	}
	return series
}

// DetectWIPGrowth applies the trend comparison to WIP snapshots: flagged
// when the preceding window's average drops below 80% of the trailing one.
func DetectWIPGrowth(series []WIPSnapshot, windowDays int, asOf time.Time) TrendResult {
	avgIn := func(start, end time.Time) float64 {
		sum, n := 0, 0
		for _, s := range series {
			if s.At.After(start) && !s.At.After(end) {
				sum += s.Count
				n++
			}
		}
		if n == 0 {
			return 0
		}
		return float64(sum) / float64(n)
	}

	trailing := avgIn(asOf.AddDate(0, 0, -windowDays), asOf)
	preceding := avgIn(asOf.AddDate(0, 0, -2*windowDays), asOf.AddDate(0, 0, -windowDays))

	result := TrendResult{
		TrailingValue:  Round2(trailing),
		PrecedingValue: Round2(preceding),
	}
	if preceding > 0 {
		r := Round2(trailing / preceding)
		result.Ratio = &r
		result.Flagged = preceding < 0.8*trailing
	}
	return result
}

// RankCategoryDwell averages time-in-category across items and ranks the
// categories by dwell descending. Categories with fewer than minSamples
// contributing items are dropped to avoid sparse-sample false positives.
func RankCategoryDwell(items []workitem.NormalizedWorkItem, minSamples int) []CategoryDwell {
	totals := make(map[string]float64)
	counts := make(map[string]int)

	for _, item := range items {
		for cat, days := range item.Residency {
			if days <= 0 {
				continue
			}
			totals[cat] += days
			counts[cat]++
		}
	}

	var ranking []CategoryDwell
	for cat, total := range totals {
		if counts[cat] < minSamples {
			continue
		}
		ranking = append(ranking, CategoryDwell{
			Category:    cat,
			AverageDays: Round2(total / float64(counts[cat])),
			Samples:     counts[cat],
		})
	}

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].AverageDays != ranking[j].AverageDays {
			return ranking[i].AverageDays > ranking[j].AverageDays
		}
		return ranking[i].Category < ranking[j].Category
	})

	return ranking
}
