package flow

import (
	"time"

	"flowlens/internal/workitem"
)

// MetricsOptions controls duration measurement. The zero value measures
// calendar days; BusinessDays excludes weekends and the given holidays.
type MetricsOptions struct {
	BusinessDays bool
	Holidays     []time.Time
}

// DurationStats aggregates a per-item duration metric. Average and median
// are nil when no item contributes a value; the count is then zero.
type DurationStats struct {
	Count       int      `json:"count"`
	AverageDays *float64 `json:"average_days,omitempty"`
	MedianDays  *float64 `json:"median_days,omitempty"`
	MinDays     *float64 `json:"min_days,omitempty"`
	MaxDays     *float64 `json:"max_days,omitempty"`
}

// RatioStats aggregates a per-item ratio metric such as flow efficiency.
type RatioStats struct {
	Count   int      `json:"count"`
	Average *float64 `json:"average,omitempty"`
	Median  *float64 `json:"median,omitempty"`
}

// ThroughputStats reports completed volume normalized to a reporting period.
type ThroughputStats struct {
	CompletedInWindow int     `json:"completed_in_window"`
	WindowDays        int     `json:"window_days"`
	PeriodDays        int     `json:"period_days"`
	PerPeriod         float64 `json:"per_period"`
}

// WIPStats is a snapshot of items currently in an active category.
type WIPStats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category,omitempty"`
	ByAssignee map[string]int `json:"by_assignee,omitempty"`
}

// Little's Law classification labels.
const (
	LittlesLawSteadyState     = "steady state"
	LittlesLawWIPAccumulation = "possible WIP accumulation"
	LittlesLawBatchDelays     = "possible batch delays"
	LittlesLawIndeterminate   = "indeterminate"
)

// LittlesLawResult is the consistency cross-check between measured cycle
// time and the cycle time implied by WIP and throughput. It never blocks
// report generation; a zero throughput rate yields nil fields.
type LittlesLawResult struct {
	WIPCount              int      `json:"wip_count"`
	ThroughputPerDay      float64  `json:"throughput_per_day"`
	MeasuredCycleDays     float64  `json:"measured_cycle_time_days"`
	ComputedCycleDays     *float64 `json:"computed_cycle_time_days,omitempty"`
	VariancePct           *float64 `json:"variance_pct,omitempty"`
	Classification        string   `json:"classification"`
	ClassificationDetails string   `json:"details,omitempty"`
}

// DurationDays measures the span between two instants under the configured
// day-counting mode.
func (o MetricsOptions) DurationDays(start, end time.Time) float64 {
	if !o.BusinessDays {
		return end.Sub(start).Hours() / 24.0
	}

	holidays := make(map[string]bool, len(o.Holidays))
	for _, h := range o.Holidays {
		holidays[h.Format("2006-01-02")] = true
	}

	days := 0.0
	for d := start; d.Before(end); d = d.Add(24 * time.Hour) {
		wd := d.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if holidays[d.Format("2006-01-02")] {
			continue
		}
		span := end.Sub(d)
		if span < 24*time.Hour {
			days += span.Hours() / 24.0
		} else {
			days++
		}
	}
	return days
}

// CalculateLeadTime aggregates creation-to-completion durations over items
// with a resolved done date.
func CalculateLeadTime(items []workitem.NormalizedWorkItem, opts MetricsOptions) DurationStats {
	var values []float64
	for _, item := range items {
		if item.DoneAt == nil {
			continue
		}
		values = append(values, opts.DurationDays(item.CreatedAt, *item.DoneAt))
	}
	return aggregateDurations(values)
}

// CalculateCycleTime aggregates active-entry-to-completion durations,
// using the normalizer's active fallback where needed.
func CalculateCycleTime(items []workitem.NormalizedWorkItem, opts MetricsOptions) DurationStats {
	var values []float64
	for _, item := range items {
		if item.DoneAt == nil || item.ActiveAt == nil {
			continue
		}
		values = append(values, opts.DurationDays(*item.ActiveAt, *item.DoneAt))
	}
	return aggregateDurations(values)
}

// CalculateSamples projects each completed item onto its metric sample.
// Items with zero or negative lead time carry a nil efficiency.
func CalculateSamples(items []workitem.NormalizedWorkItem, opts MetricsOptions) []workitem.MetricSample {
	var samples []workitem.MetricSample
	for _, item := range items {
		if item.DoneAt == nil || item.ActiveAt == nil {
			continue
		}
		s := workitem.MetricSample{
			ID:            item.ID,
			LeadTimeDays:  opts.DurationDays(item.CreatedAt, *item.DoneAt),
			CycleTimeDays: opts.DurationDays(*item.ActiveAt, *item.DoneAt),
		}
		if s.LeadTimeDays > 0 {
			eff := s.CycleTimeDays / s.LeadTimeDays
			s.FlowEfficiency = &eff
		}
		samples = append(samples, s)
	}
	return samples
}

// CalculateThroughput counts completions in the trailing window ending at
// asOf and normalizes the count to the reporting period.
func CalculateThroughput(items []workitem.NormalizedWorkItem, periodDays, windowDays int, asOf time.Time) ThroughputStats {
	stats := ThroughputStats{WindowDays: windowDays, PeriodDays: periodDays}
	if windowDays <= 0 || periodDays <= 0 {
		return stats
	}

	windowStart := asOf.AddDate(0, 0, -windowDays)
	for _, item := range items {
		if item.DoneAt == nil {
			continue
		}
		if item.DoneAt.After(windowStart) && !item.DoneAt.After(asOf) {
			stats.CompletedInWindow++
		}
	}

	stats.PerPeriod = float64(stats.CompletedInWindow) / float64(windowDays) * float64(periodDays)
	return stats
}

// CalculateWIP snapshots items currently in an active category, broken down
// by category and assignee.
func CalculateWIP(items []workitem.NormalizedWorkItem) WIPStats {
	stats := WIPStats{
		ByCategory: make(map[string]int),
		ByAssignee: make(map[string]int),
	}
	for _, item := range items {
		if !item.IsActive {
			continue
		}
		stats.Total++
		stats.ByCategory[item.Category]++
		assignee := item.Assignee
		if assignee == "" {
			assignee = "unassigned"
		}
		stats.ByAssignee[assignee]++
	}
	return stats
}

// CalculateFlowEfficiency aggregates per-item cycle/lead ratios; items with
// zero or negative lead time are excluded (divide guard).
func CalculateFlowEfficiency(items []workitem.NormalizedWorkItem, opts MetricsOptions) RatioStats {
	var values []float64
	for _, s := range CalculateSamples(items, opts) {
		if s.FlowEfficiency != nil {
			values = append(values, *s.FlowEfficiency)
		}
	}

	stats := RatioStats{Count: len(values)}
	if len(values) == 0 {
		return stats
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := Round2(sum / float64(len(values)))
	med := Round2(CalculateMedian(values))
	stats.Average = &avg
	stats.Median = &med
	return stats
}

// ValidateLittlesLaw cross-checks measured cycle time against WIP divided by
// the throughput rate. A zero rate yields nil fields, never an error.
func ValidateLittlesLaw(wipCount int, throughputPerDay, measuredCycleDays float64) LittlesLawResult {
	result := LittlesLawResult{
		WIPCount:          wipCount,
		ThroughputPerDay:  throughputPerDay,
		MeasuredCycleDays: measuredCycleDays,
		Classification:    LittlesLawIndeterminate,
	}

	if throughputPerDay <= 0 {
		result.ClassificationDetails = "throughput rate is zero; computed cycle time undefined"
		return result
	}

	computed := float64(wipCount) / throughputPerDay
	result.ComputedCycleDays = &computed

	if measuredCycleDays <= 0 {
		result.ClassificationDetails = "measured cycle time is zero; variance undefined"
		return result
	}

	variance := Round2((computed - measuredCycleDays) / measuredCycleDays * 100)
	result.VariancePct = &variance

	switch {
	case variance >= -20 && variance <= 20:
		result.Classification = LittlesLawSteadyState
	case computed > measuredCycleDays:
		result.Classification = LittlesLawWIPAccumulation
	default:
		result.Classification = LittlesLawBatchDelays
	}

	return result
}

func aggregateDurations(values []float64) DurationStats {
	stats := DurationStats{Count: len(values)}
	if len(values) == 0 {
		return stats
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	avg := Round2(sum / float64(len(values)))
	med := Round2(CalculateMedian(values))
	lo, hi := minMax(values)
	lo, hi = Round2(lo), Round2(hi)

	stats.AverageDays = &avg
	stats.MedianDays = &med
	stats.MinDays = &lo
	stats.MaxDays = &hi
	return stats
}
