package insights

import (
	"flowlens/internal/flow"
	"flowlens/internal/workitem"
)

// Risk levels for the bucketed 0-100 scores.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskFactor is one weighted contributor to a model's score.
type RiskFactor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Detail string  `json:"detail"`
}

// RiskScore is the result of one scoring model.
type RiskScore struct {
	Model   string       `json:"model"`
	Score   float64      `json:"score"`
	Level   string       `json:"level"`
	Factors []RiskFactor `json:"factors,omitempty"`
}

// RiskAssessment aggregates the three models; Overall is the maximum level.
type RiskAssessment struct {
	Delivery RiskScore `json:"delivery"`
	Quality  RiskScore `json:"quality"`
	Capacity RiskScore `json:"capacity"`
	Overall  string    `json:"overall"`
}

func riskLevel(score float64) string {
	switch {
	case score <= 33:
		return RiskLow
	case score <= 66:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func buildScore(model string, factors []RiskFactor) RiskScore {
	total := 0.0
	for _, f := range factors {
		total += f.Weight
	}
	if total > 100 {
		total = 100
	}
	return RiskScore{
		Model:   model,
		Score:   flow.Round2(total),
		Level:   riskLevel(total),
		Factors: factors,
	}
}

// assessRisk is stage 5: three independent weighted models, each summing
// fixed per-factor weights into a 0-100 score. Overall is the worst level
// across the three.
func assessRisk(report flow.AggregateMetricsReport, insights []Insight, bottlenecks []Bottleneck) RiskAssessment {
	a := RiskAssessment{
		Delivery: assessDeliveryRisk(report, insights),
		Quality:  assessQualityRisk(report),
		Capacity: assessCapacityRisk(report, bottlenecks),
	}

	a.Overall = a.Delivery.Level
	for _, level := range []string{a.Quality.Level, a.Capacity.Level} {
		if riskRank(level) > riskRank(a.Overall) {
			a.Overall = level
		}
	}
	return a
}

func riskRank(level string) int {
	switch level {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// assessDeliveryRisk scores the chance of missing delivery expectations:
// long lead times, declining throughput, unstable delivery, and a flow that
// fails its own Little's Law cross-check.
func assessDeliveryRisk(report flow.AggregateMetricsReport, insights []Insight) RiskScore {
	var factors []RiskFactor

	for _, in := range insights {
		if in.Metric == "lead_time" && (in.Tier == TierConcerning || in.Tier == TierCritical) {
			w := 25.0
			if in.Tier == TierCritical {
				w = 35
			}
			factors = append(factors, RiskFactor{Name: "lead_time_breach", Weight: w, Detail: in.Message})
		}
	}
	if report.ThroughputTrend.Flagged {
		factors = append(factors, RiskFactor{Name: "declining_throughput", Weight: 30, Detail: "recent throughput fell below 80% of the preceding window"})
	}
	if report.Variability.Tier == flow.TierHigh || report.Variability.Tier == flow.TierExtreme {
		w := 20.0
		if report.Variability.Tier == flow.TierExtreme {
			w = 30
		}
		factors = append(factors, RiskFactor{Name: "unstable_delivery", Weight: w, Detail: "weekly throughput variability undermines forecast reliability"})
	}
	if report.LittlesLaw.Classification == flow.LittlesLawWIPAccumulation {
		factors = append(factors, RiskFactor{Name: "wip_accumulation", Weight: 15, Detail: "measured cycle time runs well below the WIP-implied value; queues are building"})
	}

	return buildScore("delivery", factors)
}

// assessQualityRisk scores signals that the data or the process is producing
// rework and noise: anomaly density, cancellation share, batchy completion.
func assessQualityRisk(report flow.AggregateMetricsReport) RiskScore {
	var factors []RiskFactor

	if report.TotalItems > 0 {
		anomalous := 0
		for kind, n := range report.Anomalies {
			if kind == string(workitem.AnomalyActiveFallback) {
				continue
			}
			anomalous += n
		}
		ratio := float64(anomalous) / float64(report.TotalItems)
		switch {
		case ratio > 0.25:
			factors = append(factors, RiskFactor{Name: "anomaly_density", Weight: 40, Detail: "over a quarter of items carry date-resolution anomalies"})
		case ratio > 0.10:
			factors = append(factors, RiskFactor{Name: "anomaly_density", Weight: 20, Detail: "noticeable share of items carry date-resolution anomalies"})
		}

		cancelRatio := float64(report.CancelledItems) / float64(report.TotalItems)
		if cancelRatio > 0.15 {
			factors = append(factors, RiskFactor{Name: "cancellation_rate", Weight: 30, Detail: "a high share of items are abandoned after being started"})
		}
	}
	if report.LittlesLaw.Classification == flow.LittlesLawBatchDelays {
		factors = append(factors, RiskFactor{Name: "batch_completion", Weight: 20, Detail: "completions arrive in batches rather than continuously"})
	}

	return buildScore("quality", factors)
}

// assessCapacityRisk scores overload: WIP growth, per-person overload and
// throughput running far below the WIP-implied ceiling.
func assessCapacityRisk(report flow.AggregateMetricsReport, bottlenecks []Bottleneck) RiskScore {
	var factors []RiskFactor

	if report.WIPTrend.Flagged {
		factors = append(factors, RiskFactor{Name: "wip_growth", Weight: 30, Detail: "WIP is growing faster than it is being completed"})
	}
	for _, b := range bottlenecks {
		switch b.Kind {
		case BottleneckWIPOverload:
			factors = append(factors, RiskFactor{Name: "wip_overload", Weight: 35, Detail: b.Message})
		case BottleneckThroughput:
			factors = append(factors, RiskFactor{Name: "constrained_throughput", Weight: 25, Detail: b.Message})
		}
	}

	return buildScore("capacity", factors)
}
