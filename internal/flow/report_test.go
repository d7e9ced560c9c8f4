package flow

import (
	"encoding/json"
	"testing"

	"flowlens/internal/workitem"
)

func snapshotFixture() []workitem.RawWorkItem {
	var raws []workitem.RawWorkItem
	for i := 0; i < 8; i++ {
		raws = append(raws, workitem.RawWorkItem{
			ID:        "R-done",
			State:     "Done",
			Assignee:  "ada",
			CreatedAt: day(i),
			Transitions: []workitem.Transition{
				{ToState: "In Progress", At: day(i + 1)},
				{ToState: "Done", At: day(i + 6)},
			},
		})
	}
	raws = append(raws,
		workitem.RawWorkItem{
			ID: "R-wip", State: "In Progress", Assignee: "grace", CreatedAt: day(10),
			Transitions: []workitem.Transition{{ToState: "In Progress", At: day(11)}},
		},
		workitem.RawWorkItem{ID: "R-queued", State: "To Do", CreatedAt: day(12)},
		workitem.RawWorkItem{ID: "R-gone", State: "Cancelled", CreatedAt: day(3)},
	)
	return raws
}

func TestBuildReportCounts(t *testing.T) {
	session, err := NewSession(DefaultCategoryConfig(), ReportOptions{AsOf: day(20)})
	if err != nil {
		t.Fatal(err)
	}

	report := session.Report(snapshotFixture())

	if report.TotalItems != 11 {
		t.Errorf("Total = %d, want 11", report.TotalItems)
	}
	if report.CompletedItems != 8 {
		t.Errorf("Completed = %d, want 8", report.CompletedItems)
	}
	if report.CancelledItems != 1 {
		t.Errorf("Cancelled = %d, want 1", report.CancelledItems)
	}
	if report.WIP.Total != 1 {
		t.Errorf("WIP = %d, want 1", report.WIP.Total)
	}
	if report.LeadTime.Count != 8 {
		t.Errorf("Lead count = %d, want 8", report.LeadTime.Count)
	}
}

func TestPipelineIdempotence(t *testing.T) {
	raws := snapshotFixture()
	opts := ReportOptions{AsOf: day(20)}

	run := func() AggregateMetricsReport {
		session, err := NewSession(DefaultCategoryConfig(), opts)
		if err != nil {
			t.Fatal(err)
		}
		return session.Report(raws)
	}

	first, _ := json.Marshal(run())
	second, _ := json.Marshal(run())
	if string(first) != string(second) {
		t.Errorf("Reports differ across identical runs:\n%s\n%s", first, second)
	}
}

func TestNewSessionRejectsInvalidConfig(t *testing.T) {
	_, err := NewSession(CategoryConfig{}, ReportOptions{})
	if err == nil {
		t.Fatal("Expected validation error for empty config")
	}
}

func TestBuildReportEmptySnapshot(t *testing.T) {
	report := BuildReport(nil, ReportOptions{AsOf: day(0)})

	if report.TotalItems != 0 || report.WIP.Total != 0 {
		t.Errorf("Empty snapshot produced counts: %+v", report)
	}
	if report.LeadTime.AverageDays != nil {
		t.Errorf("Empty snapshot must carry nil averages, got %v", report.LeadTime.AverageDays)
	}
	if report.LittlesLaw.Classification != LittlesLawIndeterminate {
		t.Errorf("Empty snapshot Little's Law = %q", report.LittlesLaw.Classification)
	}
}

func TestProjectRunsOnce(t *testing.T) {
	session, err := NewSession(DefaultCategoryConfig(), ReportOptions{AsOf: day(20)})
	if err != nil {
		t.Fatal(err)
	}

	raws := snapshotFixture()
	first := session.Project(raws)
	// A second call with a different snapshot must return the first result.
	second := session.Project(nil)
	if len(first) != len(second) {
		t.Errorf("Projection re-ran: %d vs %d items", len(first), len(second))
	}
}
