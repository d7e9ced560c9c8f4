package insights

import (
	"fmt"

	"flowlens/internal/flow"
)

// Bottleneck kinds produced by the detectors.
const (
	BottleneckWaitTime      = "wait_time"
	BottleneckThroughput    = "throughput_constraint"
	BottleneckWIPOverload   = "wip_overload"
	BottleneckCategoryDwell = "category_dwell"
)

// Bottleneck is a detected structural cause of delay.
type Bottleneck struct {
	Kind      string  `json:"kind"`
	Severity  string  `json:"severity"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Category  string  `json:"category,omitempty"`
	Message   string  `json:"message"`
}

// detectBottlenecks is stage 2: every detector runs unconditionally; none
// suppresses another.
func detectBottlenecks(report flow.AggregateMetricsReport, params BottleneckParams) []Bottleneck {
	var found []Bottleneck

	if b := detectWaitTime(report, params); b != nil {
		found = append(found, *b)
	}
	if b := detectThroughputConstraint(report, params); b != nil {
		found = append(found, *b)
	}
	if b := detectWIPOverload(report, params); b != nil {
		found = append(found, *b)
	}
	found = append(found, detectDwellBottlenecks(report, params)...)

	return found
}

// detectWaitTime flags processes where most of the lead time is queue time.
func detectWaitTime(report flow.AggregateMetricsReport, params BottleneckParams) *Bottleneck {
	if report.LeadTime.AverageDays == nil || report.CycleTime.AverageDays == nil {
		return nil
	}
	lead := *report.LeadTime.AverageDays
	if lead <= 0 {
		return nil
	}

	wait := lead - *report.CycleTime.AverageDays
	ratio := wait / lead
	if ratio <= params.WaitTimeRatio {
		return nil
	}

	return &Bottleneck{
		Kind:      BottleneckWaitTime,
		Severity:  SeverityHigh,
		Value:     flow.Round2(ratio),
		Threshold: params.WaitTimeRatio,
		Message:   fmt.Sprintf("items spend %.0f%% of lead time waiting rather than being worked", ratio*100),
	}
}

// detectThroughputConstraint compares actual delivery against the
// Little's-Law-implied theoretical maximum (WIP / measured cycle time).
func detectThroughputConstraint(report flow.AggregateMetricsReport, params BottleneckParams) *Bottleneck {
	if report.CycleTime.AverageDays == nil || *report.CycleTime.AverageDays <= 0 {
		return nil
	}
	if report.Throughput.WindowDays <= 0 {
		return nil
	}

	theoreticalPerDay := float64(report.WIP.Total) / *report.CycleTime.AverageDays
	if theoreticalPerDay <= 0 {
		return nil
	}

	actualPerDay := float64(report.Throughput.CompletedInWindow) / float64(report.Throughput.WindowDays)
	efficiency := actualPerDay / theoreticalPerDay
	if efficiency >= params.ThroughputEfficiency {
		return nil
	}

	return &Bottleneck{
		Kind:      BottleneckThroughput,
		Severity:  SeverityHigh,
		Value:     flow.Round2(efficiency),
		Threshold: params.ThroughputEfficiency,
		Message:   fmt.Sprintf("delivery rate is %.0f%% of the WIP-implied capacity; work is likely stalling in process", efficiency*100),
	}
}

// detectWIPOverload flags average per-assignee WIP above the limit.
// Unassigned items are excluded from the per-person average.
func detectWIPOverload(report flow.AggregateMetricsReport, params BottleneckParams) *Bottleneck {
	assigned := 0
	people := 0
	for who, n := range report.WIP.ByAssignee {
		if who == "unassigned" {
			continue
		}
		assigned += n
		people++
	}
	if people == 0 {
		return nil
	}

	perPerson := float64(assigned) / float64(people)
	if perPerson <= params.WIPPerPerson {
		return nil
	}

	return &Bottleneck{
		Kind:      BottleneckWIPOverload,
		Severity:  SeverityHigh,
		Value:     flow.Round2(perPerson),
		Threshold: params.WIPPerPerson,
		Message:   fmt.Sprintf("average WIP per person is %.1f (limit %.0f); context switching is eroding focus", perPerson, params.WIPPerPerson),
	}
}

// detectDwellBottlenecks surfaces the top-ranked dwell categories that
// exceed the configured ceiling. The ranking is already sample-size gated.
func detectDwellBottlenecks(report flow.AggregateMetricsReport, params BottleneckParams) []Bottleneck {
	var found []Bottleneck
	for i, d := range report.DwellRanking {
		if i >= 2 || d.AverageDays <= params.TopDwellDays {
			break
		}
		severity := SeverityMedium
		if i == 0 {
			severity = SeverityHigh
		}
		found = append(found, Bottleneck{
			Kind:      BottleneckCategoryDwell,
			Severity:  severity,
			Value:     d.AverageDays,
			Threshold: params.TopDwellDays,
			Category:  d.Category,
			Message:   fmt.Sprintf("items dwell %.1f days on average in %q (%d samples)", d.AverageDays, d.Category, d.Samples),
		})
	}
	return found
}
