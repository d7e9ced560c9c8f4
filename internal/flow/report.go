package flow

import (
	"time"

	"flowlens/internal/workitem"

	"github.com/rs/zerolog/log"
)

// ReportOptions parameterizes one report build. Zero fields are replaced by
// defaults in BuildReport.
type ReportOptions struct {
	// AsOf anchors every trailing window; required for reproducible runs.
	AsOf time.Time `json:"as_of"`
	// PeriodDays is the reporting period throughput is normalized to.
	PeriodDays int `json:"period_days"`
	// WindowDays is the trailing completion window for throughput.
	WindowDays int `json:"window_days"`
	// TrendWindowDays is the N used by the declining-throughput and
	// WIP-growth detectors.
	TrendWindowDays int `json:"trend_window_days"`
	// HistoryWeeks is the length of the weekly throughput/WIP series.
	HistoryWeeks int `json:"history_weeks"`
	// DwellMinSamples gates the per-category dwell ranking.
	DwellMinSamples int `json:"dwell_min_samples"`

	Metrics MetricsOptions   `json:"-"`
	Tiers   VariabilityTiers `json:"-"`
}

func (o ReportOptions) withDefaults() ReportOptions {
	if o.AsOf.IsZero() {
		o.AsOf = time.Now()
	}
	if o.PeriodDays <= 0 {
		o.PeriodDays = 7
	}
	if o.WindowDays <= 0 {
		o.WindowDays = 28
	}
	if o.TrendWindowDays <= 0 {
		o.TrendWindowDays = 14
	}
	if o.HistoryWeeks <= 0 {
		o.HistoryWeeks = 12
	}
	if o.DwellMinSamples <= 0 {
		o.DwellMinSamples = 3
	}
	if o.Tiers == (VariabilityTiers{}) {
		o.Tiers = DefaultVariabilityTiers()
	}
	return o
}

// AggregateMetricsReport is the exported, serializable result of the metrics
// pipeline for one snapshot of items.
type AggregateMetricsReport struct {
	AsOf time.Time `json:"as_of"`

	TotalItems     int `json:"total_items"`
	CompletedItems int `json:"completed_items"`
	CancelledItems int `json:"cancelled_items"`

	LeadTime       DurationStats    `json:"lead_time"`
	CycleTime      DurationStats    `json:"cycle_time"`
	Throughput     ThroughputStats  `json:"throughput"`
	WIP            WIPStats         `json:"wip"`
	FlowEfficiency RatioStats       `json:"flow_efficiency"`
	LittlesLaw     LittlesLawResult `json:"littles_law"`

	Variability     VariabilityResult `json:"variability"`
	ThroughputTrend TrendResult       `json:"throughput_trend"`
	WIPTrend        TrendResult       `json:"wip_trend"`
	DwellRanking    []CategoryDwell   `json:"dwell_ranking,omitempty"`

	// Anomalies counts data quality problems per anomaly kind.
	Anomalies map[string]int `json:"anomalies,omitempty"`
}

// BuildReport computes the full metric set over normalized items. A
// well-formed but empty snapshot yields an all-zero report, never an error.
func BuildReport(items []workitem.NormalizedWorkItem, opts ReportOptions) AggregateMetricsReport {
	opts = opts.withDefaults()

	report := AggregateMetricsReport{
		AsOf:       opts.AsOf,
		TotalItems: len(items),
		Anomalies:  make(map[string]int),
	}

	for _, item := range items {
		if item.IsCancelled {
			report.CancelledItems++
		} else if item.DoneAt != nil {
			report.CompletedItems++
		}
		for _, a := range item.Anomalies {
			report.Anomalies[string(a)]++
		}
	}

	report.LeadTime = CalculateLeadTime(items, opts.Metrics)
	report.CycleTime = CalculateCycleTime(items, opts.Metrics)
	report.Throughput = CalculateThroughput(items, opts.PeriodDays, opts.WindowDays, opts.AsOf)
	report.WIP = CalculateWIP(items)
	report.FlowEfficiency = CalculateFlowEfficiency(items, opts.Metrics)

	ratePerDay := float64(report.Throughput.CompletedInWindow) / float64(opts.WindowDays)
	measuredCycle := 0.0
	if report.CycleTime.AverageDays != nil {
		measuredCycle = *report.CycleTime.AverageDays
	}
	report.LittlesLaw = ValidateLittlesLaw(report.WIP.Total, ratePerDay, measuredCycle)

	window := NewAnalysisWindow(opts.AsOf.AddDate(0, 0, -7*opts.HistoryWeeks), opts.AsOf, "week")
	report.Variability = CalculateVariability(BuildWeeklyThroughput(items, window), opts.Tiers)
	report.ThroughputTrend = DetectDecliningThroughput(items, opts.TrendWindowDays, opts.AsOf)
	report.WIPTrend = DetectWIPGrowth(BuildWIPSeries(items, window), opts.TrendWindowDays, opts.AsOf)
	report.DwellRanking = RankCategoryDwell(items, opts.DwellMinSamples)

	log.Debug().
		Int("items", report.TotalItems).
		Int("completed", report.CompletedItems).
		Int("wip", report.WIP.Total).
		Str("littles_law", report.LittlesLaw.Classification).
		Msg("aggregate report built")

	return report
}

// Session binds a validated category configuration to the normalizer and
// metrics pipeline for one analysis run.
type Session struct {
	classifier *Classifier
	normalizer *Normalizer
	opts       ReportOptions

	normalized  []workitem.NormalizedWorkItem
	isProjected bool
}

// NewSession validates the category configuration and prepares a run.
// Validation failures abort before any item is processed.
func NewSession(config CategoryConfig, opts ReportOptions) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	classifier := NewClassifier(config)
	return &Session{
		classifier: classifier,
		normalizer: NewNormalizer(classifier),
		opts:       opts.withDefaults(),
	}, nil
}

// Project normalizes the raw snapshot once; repeated calls are no-ops.
func (s *Session) Project(items []workitem.RawWorkItem) []workitem.NormalizedWorkItem {
	if !s.isProjected {
		s.normalized = s.normalizer.NormalizeAll(items, s.opts.AsOf)
		s.isProjected = true
	}
	return s.normalized
}

// Report builds the aggregate metrics report for the projected snapshot.
func (s *Session) Report(items []workitem.RawWorkItem) AggregateMetricsReport {
	return BuildReport(s.Project(items), s.opts)
}

// Classifier exposes the session's memoized classifier.
func (s *Session) Classifier() *Classifier {
	return s.classifier
}

// Options returns the effective report options after defaulting.
func (s *Session) Options() ReportOptions {
	return s.opts
}
