package insights

import (
	"fmt"

	"flowlens/internal/flow"
)

// MetricTiers declares the three boundaries of a 4-tier grading scale.
// For lower-is-better metrics a value at or below Excellent grades
// excellent, and so on; Polarity flips the comparisons for metrics where
// higher is better (throughput, flow efficiency).
type MetricTiers struct {
	Excellent  float64 `json:"excellent" yaml:"excellent"`
	Good       float64 `json:"good" yaml:"good"`
	Concerning float64 `json:"concerning" yaml:"concerning"`
}

// valid reports whether the boundaries are ordered for the given polarity.
func (m MetricTiers) valid(higherIsBetter bool) bool {
	if higherIsBetter {
		return m.Excellent >= m.Good && m.Good >= m.Concerning
	}
	return m.Excellent <= m.Good && m.Good <= m.Concerning
}

// BottleneckParams parameterizes the independent bottleneck detectors.
type BottleneckParams struct {
	// WaitTimeRatio flags items spending more than this share of lead time waiting.
	WaitTimeRatio float64 `json:"wait_time_ratio" yaml:"wait_time_ratio"`
	// ThroughputEfficiency flags delivery below this share of the
	// Little's-Law-implied theoretical maximum.
	ThroughputEfficiency float64 `json:"throughput_efficiency" yaml:"throughput_efficiency"`
	// WIPPerPerson flags average per-assignee WIP above this value.
	WIPPerPerson float64 `json:"wip_per_person" yaml:"wip_per_person"`
	// TopDwellDays flags the top-ranked category dwell above this value.
	TopDwellDays float64 `json:"top_dwell_days" yaml:"top_dwell_days"`
}

// Thresholds is the full, pre-validated threshold configuration consumed by
// the engine.
type Thresholds struct {
	LeadTimeDays        MetricTiers `json:"lead_time_days" yaml:"lead_time_days"`
	CycleTimeDays       MetricTiers `json:"cycle_time_days" yaml:"cycle_time_days"`
	ThroughputPerPeriod MetricTiers `json:"throughput_per_period" yaml:"throughput_per_period"`
	FlowEfficiency      MetricTiers `json:"flow_efficiency" yaml:"flow_efficiency"`

	Variability flow.VariabilityTiers `json:"variability" yaml:"variability"`
	Bottlenecks BottleneckParams      `json:"bottlenecks" yaml:"bottlenecks"`
}

// DefaultThresholds returns the built-in grading scales.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LeadTimeDays:        MetricTiers{Excellent: 7, Good: 14, Concerning: 30},
		CycleTimeDays:       MetricTiers{Excellent: 3, Good: 7, Concerning: 14},
		ThroughputPerPeriod: MetricTiers{Excellent: 10, Good: 5, Concerning: 2},
		FlowEfficiency:      MetricTiers{Excellent: 0.40, Good: 0.25, Concerning: 0.15},
		Variability:         flow.DefaultVariabilityTiers(),
		Bottlenecks: BottleneckParams{
			WaitTimeRatio:        0.70,
			ThroughputEfficiency: 0.50,
			WIPPerPerson:         3,
			TopDwellDays:         7,
		},
	}
}

// Validate checks the configuration for structural errors that must abort
// the run before any processing. Per-metric tier sets that are present but
// inverted are NOT fatal here: the grading stage skips them and counts the
// anomaly, per the propagation policy.
func (t *Thresholds) Validate() error {
	if t.Bottlenecks.WaitTimeRatio <= 0 || t.Bottlenecks.WaitTimeRatio >= 1 {
		return fmt.Errorf("thresholds: wait_time_ratio must be in (0,1), got %v", t.Bottlenecks.WaitTimeRatio)
	}
	if t.Bottlenecks.ThroughputEfficiency <= 0 || t.Bottlenecks.ThroughputEfficiency >= 1 {
		return fmt.Errorf("thresholds: throughput_efficiency must be in (0,1), got %v", t.Bottlenecks.ThroughputEfficiency)
	}
	if t.Bottlenecks.WIPPerPerson <= 0 {
		return fmt.Errorf("thresholds: wip_per_person must be positive, got %v", t.Bottlenecks.WIPPerPerson)
	}
	if t.Variability.Stable <= 0 || t.Variability.Moderate <= t.Variability.Stable || t.Variability.High <= t.Variability.Moderate {
		return fmt.Errorf("thresholds: variability tiers must be ascending and positive")
	}
	return nil
}
