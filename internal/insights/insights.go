package insights

import (
	"fmt"

	"flowlens/internal/flow"
)

// Tier is the grade of a metric against its 4-tier threshold scale.
type Tier string

const (
	TierExcellent  Tier = "excellent"
	TierGood       Tier = "good"
	TierConcerning Tier = "concerning"
	TierCritical   Tier = "critical"
)

// Severity levels carried by insights, bottlenecks and alerts.
const (
	SeverityInfo     = "info"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Insight is one graded metric observation.
type Insight struct {
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
	Tier     Tier    `json:"tier"`
	Severity string  `json:"severity"`
	Message  string  `json:"message"`
}

// severityForTier maps a grade to the severity used for alert promotion.
func severityForTier(t Tier) string {
	switch t {
	case TierConcerning:
		return SeverityHigh
	case TierCritical:
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// gradeValue grades a value against a tier scale with the given polarity.
func gradeValue(value float64, tiers MetricTiers, higherIsBetter bool) Tier {
	if higherIsBetter {
		switch {
		case value >= tiers.Excellent:
			return TierExcellent
		case value >= tiers.Good:
			return TierGood
		case value >= tiers.Concerning:
			return TierConcerning
		default:
			return TierCritical
		}
	}
	switch {
	case value <= tiers.Excellent:
		return TierExcellent
	case value <= tiers.Good:
		return TierGood
	case value <= tiers.Concerning:
		return TierConcerning
	default:
		return TierCritical
	}
}

// gradedMetric describes one tracked metric for the grading stage.
type gradedMetric struct {
	name           string
	value          *float64
	tiers          MetricTiers
	higherIsBetter bool
	unit           string
}

// gradeMetrics is stage 1: compare each tracked metric against its scale.
// Metrics without data are skipped; malformed tier sets are skipped and
// counted, never fatal.
func gradeMetrics(report flow.AggregateMetricsReport, t Thresholds) ([]Insight, int) {
	throughput := report.Throughput.PerPeriod

	metrics := []gradedMetric{
		{name: "lead_time", value: report.LeadTime.AverageDays, tiers: t.LeadTimeDays, unit: "days"},
		{name: "cycle_time", value: report.CycleTime.AverageDays, tiers: t.CycleTimeDays, unit: "days"},
		{name: "throughput", value: &throughput, tiers: t.ThroughputPerPeriod, higherIsBetter: true, unit: "items/period"},
		{name: "flow_efficiency", value: report.FlowEfficiency.Average, tiers: t.FlowEfficiency, higherIsBetter: true, unit: "ratio"},
	}

	var insights []Insight
	skipped := 0

	for _, m := range metrics {
		if m.value == nil {
			continue
		}
		if !m.tiers.valid(m.higherIsBetter) {
			skipped++
			continue
		}
		tier := gradeValue(*m.value, m.tiers, m.higherIsBetter)
		insights = append(insights, Insight{
			Metric:   m.name,
			Value:    *m.value,
			Tier:     tier,
			Severity: severityForTier(tier),
			Message:  fmt.Sprintf("%s is %.2f %s (%s)", m.name, *m.value, m.unit, tier),
		})
	}

	// Variability grading rides on the tier already computed by the
	// analyzer; extreme variability is a critical predictability signal.
	if report.Variability.CV != nil {
		tier := TierGood
		switch report.Variability.Tier {
		case flow.TierStable:
			tier = TierExcellent
		case flow.TierModerate:
			tier = TierGood
		case flow.TierHigh:
			tier = TierConcerning
		case flow.TierExtreme:
			tier = TierCritical
		}
		insights = append(insights, Insight{
			Metric:   "throughput_variability",
			Value:    *report.Variability.CV,
			Tier:     tier,
			Severity: severityForTier(tier),
			Message:  fmt.Sprintf("weekly throughput variability CV=%.2f (%s)", *report.Variability.CV, report.Variability.Tier),
		})
	}

	if report.ThroughputTrend.Flagged {
		insights = append(insights, Insight{
			Metric:   "throughput_trend",
			Value:    *report.ThroughputTrend.Ratio,
			Tier:     TierConcerning,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("throughput declined to %.0f%% of the preceding window", *report.ThroughputTrend.Ratio*100),
		})
	}
	if report.WIPTrend.Flagged {
		insights = append(insights, Insight{
			Metric:   "wip_trend",
			Value:    *report.WIPTrend.Ratio,
			Tier:     TierConcerning,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("WIP grew to %.0f%% of the preceding window", *report.WIPTrend.Ratio*100),
		})
	}

	return insights, skipped
}
