package flow

import (
	"time"

	"flowlens/internal/workitem"

	"github.com/rs/zerolog/log"
)

// Normalizer resolves canonical lifecycle dates for raw work items. It never
// fails: unresolvable dates are left unset and recorded as anomalies.
type Normalizer struct {
	classifier *Classifier
}

// NewNormalizer builds a normalizer on top of a classifier.
func NewNormalizer(classifier *Classifier) *Normalizer {
	return &Normalizer{classifier: classifier}
}

// NormalizeAll normalizes a snapshot of raw items against a fixed as-of time.
func (n *Normalizer) NormalizeAll(items []workitem.RawWorkItem, asOf time.Time) []workitem.NormalizedWorkItem {
	out := make([]workitem.NormalizedWorkItem, 0, len(items))
	for _, raw := range items {
		out = append(out, n.Normalize(raw, asOf))
	}
	return out
}

// Normalize builds the canonical view of a single item.
//
// Per-category entry dates are resolved in priority order, first success
// wins: exact label classification over the transition history, the
// flattened sanitized-key date fields, then a keyword substring scan of the
// transition labels. When several transitions enter the same category the
// minimum valid timestamp is taken.
func (n *Normalizer) Normalize(raw workitem.RawWorkItem, asOf time.Time) workitem.NormalizedWorkItem {
	cfg := n.classifier.Config()

	item := workitem.NormalizedWorkItem{
		ID:         raw.ID,
		Type:       raw.Type,
		Assignee:   raw.Assignee,
		CreatedAt:  raw.CreatedAt,
		Category:   n.classifier.Classify(raw.State),
		EntryDates: make(map[string]time.Time),
	}

	if cat, ok := cfg.Lookup(item.Category); ok {
		item.IsActive = cat.IsActive
		item.IsDone = cat.IsDone
		item.IsBlocked = cat.IsBlocked
		item.IsCancelled = cat.IsCancelled
	}

	invalidCount := 0
	for _, cat := range cfg.Categories {
		entry, ok, invalid := n.resolveEntryDate(raw, cat)
		invalidCount += invalid
		if ok {
			item.EntryDates[cat.Name] = entry
		}
	}
	if invalidCount > 0 {
		item.Anomalies = append(item.Anomalies, workitem.AnomalyInvalidTimestamp)
	}

	// Done date: earliest entry into a done category, else the tracker's
	// recorded closure when the item currently sits in a done category.
	var doneAt *time.Time
	for _, cat := range cfg.Categories {
		if !cat.IsDone {
			continue
		}
		if entry, ok := item.EntryDates[cat.Name]; ok {
			if doneAt == nil || entry.Before(*doneAt) {
				d := entry
				doneAt = &d
			}
		}
	}
	if doneAt == nil && raw.ClosedAt != nil && !raw.ClosedAt.IsZero() && item.IsDone {
		d := *raw.ClosedAt
		doneAt = &d
	}

	if doneAt != nil && doneAt.Before(raw.CreatedAt) {
		item.Anomalies = append(item.Anomalies, workitem.AnomalyClosedBeforeCreated)
		doneAt = nil
	}
	item.DoneAt = doneAt
	if item.IsDone && item.DoneAt == nil {
		item.Anomalies = append(item.Anomalies, workitem.AnomalyUnresolvedDone)
		log.Debug().Str("item", raw.ID).Msg("done date unresolvable, excluding from duration statistics")
	}

	// Active date: earliest entry into any active category. The conservative
	// created+1d placeholder applies only here; done has no fallback.
	var activeAt *time.Time
	for _, name := range cfg.ActiveCategories() {
		if entry, ok := item.EntryDates[name]; ok {
			if activeAt == nil || entry.Before(*activeAt) {
				a := entry
				activeAt = &a
			}
		}
	}
	if activeAt == nil {
		est := raw.CreatedAt.Add(24 * time.Hour)
		activeAt = &est
		item.Anomalies = append(item.Anomalies, workitem.AnomalyActiveFallback)
	}
	if activeAt != nil && activeAt.Before(raw.CreatedAt) {
		// Active entry can never precede creation; clamping preserves the
		// lead >= cycle invariant for dirty histories.
		a := raw.CreatedAt
		activeAt = &a
	}
	if activeAt != nil && item.DoneAt != nil && activeAt.After(*item.DoneAt) {
		a := *item.DoneAt
		activeAt = &a
	}
	item.ActiveAt = activeAt

	item.Residency = n.calculateResidency(raw, item.DoneAt, asOf)

	return item
}

// resolveEntryDate applies the three-step resolution for one category.
// It returns the resolved date, whether resolution succeeded, and the number
// of invalid timestamps skipped along the way.
func (n *Normalizer) resolveEntryDate(raw workitem.RawWorkItem, cat Category) (time.Time, bool, int) {
	invalid := 0

	// 1. Exact classification of transition target labels.
	var best time.Time
	found := false
	for _, tr := range raw.Transitions {
		if tr.At.IsZero() {
			invalid++
			continue
		}
		if name, ok := n.classifier.MatchExact(tr.ToState); ok && name == cat.Name {
			if !found || tr.At.Before(best) {
				best = tr.At
				found = true
			}
		}
	}
	if found {
		return best, true, invalid
	}

	// 2. Flattened per-state date fields keyed by sanitized label.
	for _, p := range cat.Patterns {
		if d, ok := raw.StateDates[SanitizeLabel(p)]; ok && !d.IsZero() {
			if !found || d.Before(best) {
				best = d
				found = true
			}
		}
	}
	if found {
		return best, true, invalid
	}

	// 3. Keyword substring scan over transition labels.
	for _, tr := range raw.Transitions {
		if tr.At.IsZero() {
			continue
		}
		if name, ok := n.classifier.MatchKeyword(tr.ToState); ok && name == cat.Name {
			if !found || tr.At.Before(best) {
				best = tr.At
				found = true
			}
		}
	}

	return best, found, invalid
}

// calculateResidency attributes wall-clock days to categories by walking the
// transition history. Time before the first transition belongs to the
// default category; the final segment is capped at the done date or as-of.
func (n *Normalizer) calculateResidency(raw workitem.RawWorkItem, doneAt *time.Time, asOf time.Time) map[string]float64 {
	residency := make(map[string]float64)

	end := asOf
	if doneAt != nil && doneAt.Before(end) {
		end = *doneAt
	}

	cursor := raw.CreatedAt
	current := n.classifier.Config().Default

	for _, tr := range raw.Transitions {
		if tr.At.IsZero() || tr.At.Before(cursor) {
			continue
		}
		segEnd := tr.At
		if segEnd.After(end) {
			segEnd = end
		}
		if segEnd.After(cursor) {
			residency[current] += segEnd.Sub(cursor).Hours() / 24.0
		}
		cursor = tr.At
		current = n.classifier.Classify(tr.ToState)
	}

	if end.After(cursor) {
		residency[current] += end.Sub(cursor).Hours() / 24.0
	}

	return residency
}
