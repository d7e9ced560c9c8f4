package insights

import (
	"encoding/json"
	"testing"

	"flowlens/internal/flow"
)

func TestAnalyzePromotesAlerts(t *testing.T) {
	report := reportFixture()
	report.LeadTime.AverageDays = f(40) // critical
	report.CycleTime.AverageDays = f(2)

	result, err := Analyze(report, DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Alerts) == 0 {
		t.Fatal("Expected alerts for critical lead time")
	}
	for _, a := range result.Alerts {
		if a.Severity != SeverityHigh && a.Severity != SeverityCritical {
			t.Errorf("Alert with sub-high severity leaked through: %+v", a)
		}
	}

	found := false
	for _, a := range result.Alerts {
		if a.Source == "lead_time" && a.Severity == SeverityCritical {
			found = true
		}
	}
	if !found {
		t.Error("Critical lead_time insight was not promoted to an alert")
	}
}

func TestAnalyzeRejectsInvalidThresholds(t *testing.T) {
	bad := DefaultThresholds()
	bad.Bottlenecks.WaitTimeRatio = 1.5

	if _, err := Analyze(reportFixture(), bad); err == nil {
		t.Fatal("Expected validation error")
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	report := reportFixture()
	report.ThroughputTrend = flow.TrendResult{TrailingValue: 2, PrecedingValue: 5, Ratio: f(0.4), Flagged: true}

	first, err := Analyze(report, DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Analyze(report, DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	if string(a) != string(b) {
		t.Errorf("Analysis differs across identical runs:\n%s\n%s", a, b)
	}
}

func TestRecommendationsDeduplicate(t *testing.T) {
	insights := []Insight{
		{Metric: "lead_time", Tier: TierConcerning, Severity: SeverityHigh},
		{Metric: "lead_time", Tier: TierCritical, Severity: SeverityCritical},
		{Metric: "cycle_time", Tier: TierGood, Severity: SeverityInfo},
	}
	recs := recommend(insights, nil, reportFixture())

	leadCount := 0
	for _, r := range recs {
		if r.Trigger == "lead_time" {
			leadCount++
		}
		if r.Trigger == "cycle_time" {
			t.Error("Good-tier metric must not produce a recommendation")
		}
	}
	if leadCount != 1 {
		t.Errorf("Expected one deduplicated lead_time recommendation, got %d", leadCount)
	}
}

func TestStrategicRecommendationOnLowVolume(t *testing.T) {
	recs := recommend(nil, nil, reportFixture())

	found := false
	for _, r := range recs {
		if r.Trigger == "measurement_maturity" {
			found = true
		}
	}
	if !found {
		t.Error("Expected strategic recommendation with no graded insights")
	}
}

func TestRiskLevels(t *testing.T) {
	if got := riskLevel(0); got != RiskLow {
		t.Errorf("riskLevel(0) = %q", got)
	}
	if got := riskLevel(33); got != RiskLow {
		t.Errorf("riskLevel(33) = %q", got)
	}
	if got := riskLevel(50); got != RiskMedium {
		t.Errorf("riskLevel(50) = %q", got)
	}
	if got := riskLevel(67); got != RiskHigh {
		t.Errorf("riskLevel(67) = %q", got)
	}
}

func TestAssessRiskOverallIsMaximum(t *testing.T) {
	report := reportFixture()
	// Capacity stress only: WIP trend flagged plus an overload bottleneck.
	report.WIPTrend = flow.TrendResult{Flagged: true}
	bottlenecks := []Bottleneck{{Kind: BottleneckWIPOverload, Message: "overloaded"}}

	assessment := assessRisk(report, nil, bottlenecks)
	if assessment.Capacity.Level != RiskMedium && assessment.Capacity.Level != RiskHigh {
		t.Errorf("Capacity level = %q, want elevated", assessment.Capacity.Level)
	}
	if assessment.Overall != assessment.Capacity.Level {
		t.Errorf("Overall %q must equal the worst model level %q", assessment.Overall, assessment.Capacity.Level)
	}
}

func TestAssessRiskCleanReport(t *testing.T) {
	assessment := assessRisk(reportFixture(), nil, nil)
	if assessment.Overall != RiskLow {
		t.Errorf("Clean report overall risk = %q, want low", assessment.Overall)
	}
	if assessment.Delivery.Score != 0 || assessment.Quality.Score != 0 {
		t.Errorf("Clean report must score zero: %+v", assessment)
	}
}

func TestRiskScoreCapped(t *testing.T) {
	score := buildScore("test", []RiskFactor{
		{Name: "a", Weight: 60},
		{Name: "b", Weight: 60},
	})
	if score.Score != 100 {
		t.Errorf("Score = %v, want capped at 100", score.Score)
	}
	if score.Level != RiskHigh {
		t.Errorf("Level = %q, want high", score.Level)
	}
}
