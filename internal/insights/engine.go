package insights

import (
	"time"

	"flowlens/internal/flow"

	"github.com/rs/zerolog/log"
)

// Alert is an insight or bottleneck promoted to actionable status.
type Alert struct {
	Source   string `json:"source"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// AnalysisResult is the full derived-analysis record for one snapshot.
type AnalysisResult struct {
	AsOf time.Time `json:"as_of"`

	Insights        []Insight        `json:"insights,omitempty"`
	Bottlenecks     []Bottleneck     `json:"bottlenecks,omitempty"`
	Alerts          []Alert          `json:"alerts,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Risk            RiskAssessment   `json:"risk"`

	// SkippedMetrics counts metrics whose tier configuration was malformed
	// and could not be graded.
	SkippedMetrics int `json:"skipped_metrics,omitempty"`
}

// Analyze runs the five evaluation stages over an aggregate report. It is a
// pure function of its inputs: the same report and thresholds always yield
// the same result. Threshold validation failures abort before any stage.
func Analyze(report flow.AggregateMetricsReport, thresholds Thresholds) (AnalysisResult, error) {
	if err := thresholds.Validate(); err != nil {
		return AnalysisResult{}, err
	}

	insights, skipped := gradeMetrics(report, thresholds)
	bottlenecks := detectBottlenecks(report, thresholds.Bottlenecks)
	alerts := promoteAlerts(insights, bottlenecks)
	recs := recommend(insights, bottlenecks, report)
	risk := assessRisk(report, insights, bottlenecks)

	log.Debug().
		Int("insights", len(insights)).
		Int("bottlenecks", len(bottlenecks)).
		Int("alerts", len(alerts)).
		Str("overall_risk", risk.Overall).
		Msg("analysis complete")

	return AnalysisResult{
		AsOf:            report.AsOf,
		Insights:        insights,
		Bottlenecks:     bottlenecks,
		Alerts:          alerts,
		Recommendations: recs,
		Risk:            risk,
		SkippedMetrics:  skipped,
	}, nil
}

// promoteAlerts is stage 3: every high or critical insight or bottleneck
// becomes an actionable alert; everything below stays informational.
func promoteAlerts(insights []Insight, bottlenecks []Bottleneck) []Alert {
	var alerts []Alert
	for _, in := range insights {
		if in.Severity == SeverityHigh || in.Severity == SeverityCritical {
			alerts = append(alerts, Alert{Source: in.Metric, Severity: in.Severity, Message: in.Message})
		}
	}
	for _, b := range bottlenecks {
		if b.Severity == SeverityHigh || b.Severity == SeverityCritical {
			alerts = append(alerts, Alert{Source: b.Kind, Severity: b.Severity, Message: b.Message})
		}
	}
	return alerts
}
