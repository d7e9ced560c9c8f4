package flow

import (
	"testing"

	"flowlens/internal/workitem"
)

func weeklyBuckets(counts ...int) []ThroughputBucket {
	start := SnapToStart(day(0), "week")
	buckets := make([]ThroughputBucket, len(counts))
	for i, c := range counts {
		buckets[i] = ThroughputBucket{WeekStarting: start.AddDate(0, 0, 7*i), Count: c}
	}
	return buckets
}

func TestCalculateVariabilityModerate(t *testing.T) {
	// CV of [2,3,2,4,3,2,3] is about 0.26: above stable, within moderate.
	res := CalculateVariability(weeklyBuckets(2, 3, 2, 4, 3, 2, 3), DefaultVariabilityTiers())

	if res.CV == nil {
		t.Fatal("Expected a CV for a non-zero series")
	}
	if res.Tier != TierModerate {
		t.Errorf("Expected moderate tier for CV %.2f, got %q", *res.CV, res.Tier)
	}
}

func TestCalculateVariabilityTiers(t *testing.T) {
	tiers := DefaultVariabilityTiers()

	stable := CalculateVariability(weeklyBuckets(5, 5, 5, 5), tiers)
	if stable.Tier != TierStable || stable.CV == nil || *stable.CV != 0 {
		t.Errorf("Constant series must be stable with CV 0, got %+v", stable)
	}

	extreme := CalculateVariability(weeklyBuckets(0, 0, 0, 12), tiers)
	if extreme.Tier != TierExtreme {
		t.Errorf("Expected extreme tier, got %q", extreme.Tier)
	}
}

func TestCalculateVariabilityZeroMean(t *testing.T) {
	res := CalculateVariability(weeklyBuckets(0, 0, 0), DefaultVariabilityTiers())
	if res.CV != nil {
		t.Errorf("Zero-mean series must carry nil CV, got %v", res.CV)
	}
	if res.Tier != TierIndeterminate {
		t.Errorf("Expected indeterminate, got %q", res.Tier)
	}

	empty := CalculateVariability(nil, DefaultVariabilityTiers())
	if empty.Tier != TierIndeterminate {
		t.Errorf("Empty series must be indeterminate, got %q", empty.Tier)
	}
}

func TestBuildWeeklyThroughput(t *testing.T) {
	window := NewAnalysisWindow(day(0), day(27), "week")
	items := []workitem.NormalizedWorkItem{
		{ID: "B-1", DoneAt: datePtr(day(1))},
		{ID: "B-2", DoneAt: datePtr(day(2))},
		{ID: "B-3", DoneAt: datePtr(day(10))},
		{ID: "B-4"}, // incomplete, ignored
	}

	buckets := BuildWeeklyThroughput(items, window)
	if len(buckets) == 0 {
		t.Fatal("Expected buckets")
	}

	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total != 3 {
		t.Errorf("Expected 3 completions bucketed, got %d", total)
	}
	if buckets[0].Count != 2 {
		t.Errorf("Expected 2 completions in first week, got %d", buckets[0].Count)
	}
}

func TestDetectDecliningThroughput(t *testing.T) {
	asOf := day(28)

	var items []workitem.NormalizedWorkItem
	// Preceding window (day 0..14): 5 completions. Trailing (day 14..28): 2.
	for i := 0; i < 5; i++ {
		items = append(items, workitem.NormalizedWorkItem{DoneAt: datePtr(day(2 + i))})
	}
	items = append(items,
		workitem.NormalizedWorkItem{DoneAt: datePtr(day(16))},
		workitem.NormalizedWorkItem{DoneAt: datePtr(day(20))},
	)

	res := DetectDecliningThroughput(items, 14, asOf)
	if !res.Flagged {
		t.Errorf("Expected decline flag: trailing %v vs preceding %v", res.TrailingValue, res.PrecedingValue)
	}
	if res.Ratio == nil || *res.Ratio != 0.4 {
		t.Errorf("Expected ratio 0.4, got %v", res.Ratio)
	}
}

func TestDetectDecliningThroughputNoBaseline(t *testing.T) {
	res := DetectDecliningThroughput(nil, 14, day(28))
	if res.Flagged || res.Ratio != nil {
		t.Errorf("Empty preceding window must not flag, got %+v", res)
	}
}

func TestBuildWIPSeriesAndGrowth(t *testing.T) {
	asOf := day(28)
	window := NewAnalysisWindow(day(0), asOf, "week")

	var items []workitem.NormalizedWorkItem
	// Six items started late and still open: WIP ramps up in the trailing half.
	for i := 0; i < 6; i++ {
		items = append(items, workitem.NormalizedWorkItem{
			ID:       "G-start",
			ActiveAt: datePtr(day(15 + i)),
			IsActive: true,
		})
	}
	// One long-running item covering the whole window.
	items = append(items, workitem.NormalizedWorkItem{ActiveAt: datePtr(day(0)), IsActive: true})
	// A cancelled item never counts.
	items = append(items, workitem.NormalizedWorkItem{ActiveAt: datePtr(day(0)), IsCancelled: true})

	series := BuildWIPSeries(items, window)
	if len(series) == 0 {
		t.Fatal("Expected snapshots")
	}

	res := DetectWIPGrowth(series, 14, asOf)
	if !res.Flagged {
		t.Errorf("Expected WIP growth flag: trailing %v vs preceding %v", res.TrailingValue, res.PrecedingValue)
	}
}

func TestBuildWIPSeriesIgnoresUnstartedBacklog(t *testing.T) {
	asOf := day(28)
	window := NewAnalysisWindow(day(0), asOf, "week")

	// Queued items carry an estimated active date from the normalizer's
	// created+1d fallback but were never worked: the series must stay at
	// zero, in agreement with CalculateWIP.
	n := testNormalizer()
	var items []workitem.NormalizedWorkItem
	for i := 0; i < 5; i++ {
		items = append(items, n.Normalize(workitem.RawWorkItem{
			ID:        "Q-queued",
			State:     "To Do",
			CreatedAt: day(2 * i),
		}, asOf))
	}

	if wip := CalculateWIP(items); wip.Total != 0 {
		t.Fatalf("Expected zero WIP for queued-only items, got %d", wip.Total)
	}

	series := BuildWIPSeries(items, window)
	for _, s := range series {
		if s.Count != 0 {
			t.Errorf("Expected zero WIP at %v for queued-only items, got %d", s.At, s.Count)
		}
	}

	if res := DetectWIPGrowth(series, 14, asOf); res.Flagged {
		t.Errorf("Queued-only backlog must not flag WIP growth, got %+v", res)
	}
}

func TestRankCategoryDwell(t *testing.T) {
	items := []workitem.NormalizedWorkItem{
		{Residency: map[string]float64{"active": 10, "todo": 1}},
		{Residency: map[string]float64{"active": 6, "todo": 2}},
		{Residency: map[string]float64{"active": 8, "todo": 3}},
		{Residency: map[string]float64{"blocked": 30}}, // single sample
	}

	ranking := RankCategoryDwell(items, 3)
	if len(ranking) != 2 {
		t.Fatalf("Expected 2 ranked categories (blocked gated out), got %d", len(ranking))
	}
	if ranking[0].Category != "active" || ranking[0].AverageDays != 8 {
		t.Errorf("Expected active at 8 days first, got %+v", ranking[0])
	}
	if ranking[1].Category != "todo" || ranking[1].AverageDays != 2 {
		t.Errorf("Expected todo at 2 days second, got %+v", ranking[1])
	}
}

func TestRankCategoryDwellDeterministicOrder(t *testing.T) {
	items := []workitem.NormalizedWorkItem{
		{Residency: map[string]float64{"a": 5, "b": 5}},
		{Residency: map[string]float64{"a": 5, "b": 5}},
	}

	ranking := RankCategoryDwell(items, 2)
	if len(ranking) != 2 || ranking[0].Category != "a" {
		t.Errorf("Equal averages must order by name, got %+v", ranking)
	}
}
