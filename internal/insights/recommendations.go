package insights

import (
	"flowlens/internal/flow"
	"flowlens/internal/workitem"
)

// Recommendation is an actionable suggestion mapped from a breach or
// bottleneck, with coarse effort and timeframe estimates.
type Recommendation struct {
	Trigger   string `json:"trigger"`
	Action    string `json:"action"`
	Effort    string `json:"effort"`
	Timeframe string `json:"timeframe"`
}

// recommendationTable is the fixed breach/bottleneck → action lookup.
var recommendationTable = map[string]Recommendation{
	"lead_time": {
		Action:    "Split large items and limit upstream queue size; long lead times are dominated by waiting before work starts.",
		Effort:    "medium",
		Timeframe: "2-4 weeks",
	},
	"cycle_time": {
		Action:    "Introduce explicit work-in-progress limits per active state and swarm on the oldest items first.",
		Effort:    "medium",
		Timeframe: "2-4 weeks",
	},
	"throughput": {
		Action:    "Review commitment rate against delivery rate; stop starting new work until the done column moves.",
		Effort:    "low",
		Timeframe: "1-2 weeks",
	},
	"flow_efficiency": {
		Action:    "Map hand-offs between states and remove approval gates that add queue time without adding information.",
		Effort:    "high",
		Timeframe: "1-2 months",
	},
	"throughput_variability": {
		Action:    "Standardize item sizing; highly variable weekly delivery usually tracks highly variable batch sizes.",
		Effort:    "medium",
		Timeframe: "1-2 months",
	},
	"throughput_trend": {
		Action:    "Investigate the recent throughput drop: look for vacations, scope ramps, or newly blocked dependencies.",
		Effort:    "low",
		Timeframe: "this week",
	},
	"wip_trend": {
		Action:    "Freeze intake until WIP returns to its previous level; growing WIP with flat throughput forecasts longer cycle times.",
		Effort:    "low",
		Timeframe: "this week",
	},
	BottleneckWaitTime: {
		Action:    "Attack queue time first: make wait states visible on the board and set aging alarms on them.",
		Effort:    "medium",
		Timeframe: "2-4 weeks",
	},
	BottleneckThroughput: {
		Action:    "Delivery runs far below WIP-implied capacity; find where items stall and clear that state before adding people.",
		Effort:    "medium",
		Timeframe: "2-4 weeks",
	},
	BottleneckWIPOverload: {
		Action:    "Reduce per-person WIP to at most 2-3 items; finish before starting.",
		Effort:    "low",
		Timeframe: "1-2 weeks",
	},
	BottleneckCategoryDwell: {
		Action:    "The slowest category dominates dwell time; add capacity or an explicit pull policy for that state.",
		Effort:    "medium",
		Timeframe: "2-4 weeks",
	},
}

// recommend is stage 4: each breach and bottleneck maps through the fixed
// table; strategic recommendations trigger on low insight volume or low
// measurement maturity.
func recommend(insights []Insight, bottlenecks []Bottleneck, report flow.AggregateMetricsReport) []Recommendation {
	var recs []Recommendation
	seen := make(map[string]bool)

	add := func(trigger string) {
		if seen[trigger] {
			return
		}
		if r, ok := recommendationTable[trigger]; ok {
			r.Trigger = trigger
			recs = append(recs, r)
			seen[trigger] = true
		}
	}

	for _, in := range insights {
		if in.Tier == TierConcerning || in.Tier == TierCritical {
			add(in.Metric)
		}
	}
	for _, b := range bottlenecks {
		add(b.Kind)
	}

	// Strategic recommendations: low signal volume or immature measurement.
	if len(insights) < 3 {
		recs = append(recs, Recommendation{
			Trigger:   "measurement_maturity",
			Action:    "Too few metrics could be graded; capture complete state histories so lead and cycle time become measurable.",
			Effort:    "medium",
			Timeframe: "1-2 months",
		})
	}
	if anomalyRatio(report) > 0.25 {
		recs = append(recs, Recommendation{
			Trigger:   "data_quality",
			Action:    "More than a quarter of items carry date-resolution anomalies; align workflow states with the category configuration.",
			Effort:    "medium",
			Timeframe: "2-4 weeks",
		})
	}

	return recs
}

func anomalyRatio(report flow.AggregateMetricsReport) float64 {
	if report.TotalItems == 0 {
		return 0
	}
	affected := 0
	for kind, n := range report.Anomalies {
		if kind == string(workitem.AnomalyActiveFallback) {
			// The documented active-entry placeholder is conservative, not a
			// data quality defect.
			continue
		}
		affected += n
	}
	ratio := float64(affected) / float64(report.TotalItems)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}
