package workitem

import "time"

// Transition is a single recorded state change of a work item.
type Transition struct {
	// ToState is the free-text label of the state the item moved into.
	ToState string `json:"toState"`
	// At is the time the transition occurred.
	At time.Time `json:"at"`
	// Actor is the account that performed the transition, if known.
	Actor string `json:"actor,omitempty"`
}

// RawWorkItem is the immutable snapshot of one work item as delivered by the
// ingestion collaborator. State labels are free text; nothing here is
// classified or resolved yet.
type RawWorkItem struct {
	// ID is the tracker key (e.g. PROJ-123).
	ID string `json:"id"`
	// Type is the work item type label (e.g. Story, Bug).
	Type string `json:"type"`
	// State is the current free-text state label.
	State string `json:"state"`
	// Assignee is the current assignee, if any.
	Assignee string `json:"assignee,omitempty"`
	// CreatedAt is the creation timestamp.
	CreatedAt time.Time `json:"createdAt"`
	// ClosedAt is the closure timestamp, when the tracker recorded one.
	ClosedAt *time.Time `json:"closedAt,omitempty"`
	// Transitions is the chronological state history.
	Transitions []Transition `json:"transitions,omitempty"`
	// StateDates holds flattened per-state entry dates as some exports
	// provide them, keyed by a sanitized form of the state label
	// (lowercased, punctuation and spaces replaced by underscores).
	StateDates map[string]time.Time `json:"stateDates,omitempty"`
}

// Anomaly identifies a non-fatal data quality problem found while
// normalizing an item. Anomalies are counted, never raised.
type Anomaly string

const (
	// AnomalyInvalidTimestamp marks a transition with a zero or unparsable timestamp.
	AnomalyInvalidTimestamp Anomaly = "invalid_timestamp"
	// AnomalyUnresolvedDone marks an item whose done date could not be resolved.
	AnomalyUnresolvedDone Anomaly = "unresolved_done_date"
	// AnomalyActiveFallback marks an item whose active-entry date was estimated
	// as created + 1 day because no transition into an active category exists.
	AnomalyActiveFallback Anomaly = "active_date_fallback"
	// AnomalyClosedBeforeCreated marks an item whose closure precedes its creation.
	AnomalyClosedBeforeCreated Anomaly = "closed_before_created"
)

// NormalizedWorkItem is the canonical per-run view of a work item after
// classification and date resolution. Created fresh per analysis run and
// never mutated afterwards.
type NormalizedWorkItem struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Assignee string `json:"assignee,omitempty"`
	// Category is the semantic category of the current state.
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
	// EntryDates maps category name to the earliest resolved entry date.
	EntryDates map[string]time.Time `json:"entryDates,omitempty"`
	// Residency maps category name to total days dwelled, derived from
	// resolved entry/exit pairs in the transition history.
	Residency map[string]float64 `json:"residency,omitempty"`
	// ActiveAt is the resolved (or estimated) entry into active work.
	ActiveAt *time.Time `json:"activeAt,omitempty"`
	// DoneAt is the resolved completion date; nil when unresolvable.
	DoneAt      *time.Time `json:"doneAt,omitempty"`
	IsActive    bool       `json:"isActive"`
	IsDone      bool       `json:"isDone"`
	IsBlocked   bool       `json:"isBlocked"`
	IsCancelled bool       `json:"isCancelled"`
	// Anomalies lists the data quality problems encountered for this item.
	Anomalies []Anomaly `json:"anomalies,omitempty"`
}

// HasAnomaly reports whether the item carries the given anomaly flag.
func (n *NormalizedWorkItem) HasAnomaly(a Anomaly) bool {
	for _, x := range n.Anomalies {
		if x == a {
			return true
		}
	}
	return false
}

// MetricSample is the per-item projection used by the metrics engine.
// Efficiency is nil when lead time is zero or negative (divide guard).
type MetricSample struct {
	ID             string   `json:"id"`
	LeadTimeDays   float64  `json:"lead_time_days"`
	CycleTimeDays  float64  `json:"cycle_time_days"`
	FlowEfficiency *float64 `json:"flow_efficiency,omitempty"`
}
