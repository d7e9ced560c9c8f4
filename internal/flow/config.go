package flow

import (
	"fmt"
	"strings"
)

// Category declares one semantic bucket for workflow state labels.
type Category struct {
	// Name identifies the category (e.g. "active", "done").
	Name string `json:"name" yaml:"name"`
	// Patterns are the label keywords that map into this category.
	// Matching is case-insensitive on the sanitized label form.
	Patterns []string `json:"patterns" yaml:"patterns"`
	// IsActive marks categories that count as work in progress.
	IsActive bool `json:"is_active" yaml:"is_active"`
	// IsDone marks terminal delivered categories.
	IsDone bool `json:"is_done" yaml:"is_done"`
	// IsBlocked marks impediment categories.
	IsBlocked bool `json:"is_blocked" yaml:"is_blocked"`
	// IsCancelled marks terminal abandoned categories. Cancelled items are
	// excluded from delivery statistics but kept in raw totals.
	IsCancelled bool `json:"is_cancelled" yaml:"is_cancelled"`
	// FlowPosition orders categories along the workflow backbone.
	FlowPosition int `json:"flow_position" yaml:"flow_position"`
}

// CategoryConfig is the full classification ruleset. The declaration order
// of Categories is significant: when a label matches patterns in more than
// one category, the category declared first wins.
type CategoryConfig struct {
	Categories []Category `json:"categories" yaml:"categories"`
	// Default names the fallback category for labels no pattern matches.
	Default string `json:"default" yaml:"default"`
}

// DefaultCategoryConfig returns the built-in ruleset covering the common
// todo/active/blocked/done/cancelled workflow vocabulary.
func DefaultCategoryConfig() CategoryConfig {
	return CategoryConfig{
		Categories: []Category{
			{
				Name:         "cancelled",
				Patterns:     []string{"cancel", "cancelled", "canceled", "discard", "discarded", "obsolete", "reject", "rejected", "decline", "declined", "wont_do", "won't do", "removed", "dropped", "abort", "aborted"},
				IsCancelled:  true,
				FlowPosition: 5,
			},
			{
				Name:         "done",
				Patterns:     []string{"done", "closed", "resolved", "fixed", "complete", "completed", "finished", "shipped", "delivered", "released", "approved"},
				IsDone:       true,
				FlowPosition: 4,
			},
			{
				Name:         "blocked",
				Patterns:     []string{"block", "blocked", "impediment", "on hold", "on_hold", "waiting", "paused", "stuck"},
				IsBlocked:    true,
				FlowPosition: 3,
			},
			{
				Name:         "active",
				Patterns:     []string{"in progress", "in_progress", "doing", "develop", "developing", "development", "implement", "implementing", "review", "testing", "qa", "verification", "staging", "active", "started"},
				IsActive:     true,
				FlowPosition: 2,
			},
			{
				Name:         "todo",
				Patterns:     []string{"to do", "todo", "open", "new", "backlog", "triage", "ready", "selected", "created", "refinement", "groom", "grooming"},
				FlowPosition: 1,
			},
		},
		Default: "todo",
	}
}

// Validate checks the configuration for structural errors. A failed
// validation aborts the run before any item is processed.
func (c CategoryConfig) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("category config: no categories declared")
	}

	seen := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return fmt.Errorf("category config: category %d has no name", i)
		}
		if seen[name] {
			return fmt.Errorf("category config: duplicate category %q", name)
		}
		seen[name] = true

		flags := 0
		for _, f := range []bool{cat.IsActive, cat.IsDone, cat.IsBlocked, cat.IsCancelled} {
			if f {
				flags++
			}
		}
		if flags > 1 {
			return fmt.Errorf("category config: category %q declares more than one activity flag", name)
		}

		if len(cat.Patterns) == 0 && name != c.Default {
			return fmt.Errorf("category config: category %q has an empty pattern list", name)
		}
	}

	if c.Default == "" {
		return fmt.Errorf("category config: no default category declared")
	}
	if !seen[c.Default] {
		return fmt.Errorf("category config: default category %q is not declared", c.Default)
	}

	return nil
}

// Lookup returns the category declaration by name.
func (c CategoryConfig) Lookup(name string) (Category, bool) {
	for _, cat := range c.Categories {
		if cat.Name == name {
			return cat, true
		}
	}
	return Category{}, false
}

// ActiveCategories returns the names of all categories flagged IsActive.
func (c CategoryConfig) ActiveCategories() []string {
	var names []string
	for _, cat := range c.Categories {
		if cat.IsActive {
			names = append(names, cat.Name)
		}
	}
	return names
}

// SanitizeLabel converts a free-text state label into the canonical key
// form used for memoization and for reconstructed per-state date lookups:
// lowercased, with punctuation and whitespace runs collapsed to underscores.
func SanitizeLabel(label string) string {
	lower := strings.ToLower(strings.TrimSpace(label))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range lower {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r > 127:
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
