package flow

import "strings"

// Classifier maps free-text state labels to semantic categories using a
// CategoryConfig ruleset. Results are memoized per sanitized label, so
// repeated lookups are amortized O(1).
//
// The classifier is deterministic: ambiguous labels resolve to the category
// declared FIRST in the configuration's category ordering, never to
// map-iteration order. Unmatched labels resolve to the declared default, so
// Classify is a total function over all strings.
//
// Not safe for concurrent use; each analysis run owns its classifier.
type Classifier struct {
	config CategoryConfig
	cache  map[string]string
}

// NewClassifier builds a classifier for a validated CategoryConfig.
func NewClassifier(config CategoryConfig) *Classifier {
	return &Classifier{
		config: config,
		cache:  make(map[string]string),
	}
}

// Config returns the ruleset the classifier was built with.
func (c *Classifier) Config() CategoryConfig {
	return c.config
}

// Classify returns the category name for a label. Exact sanitized matches
// win over keyword matches; both respect declaration order; anything else
// falls back to the default category.
func (c *Classifier) Classify(label string) string {
	key := SanitizeLabel(label)
	if cat, ok := c.cache[key]; ok {
		return cat
	}

	cat, ok := c.matchExactKey(key)
	if !ok {
		cat, ok = c.matchKeywordKey(key)
	}
	if !ok {
		cat = c.config.Default
	}

	c.cache[key] = cat
	return cat
}

// MatchExact reports the category whose pattern equals the sanitized label,
// if any.
func (c *Classifier) MatchExact(label string) (string, bool) {
	return c.matchExactKey(SanitizeLabel(label))
}

// MatchKeyword reports the category one of whose patterns occurs inside the
// sanitized label on token boundaries, if any. Used by the normalizer's
// heuristic date pass.
func (c *Classifier) MatchKeyword(label string) (string, bool) {
	return c.matchKeywordKey(SanitizeLabel(label))
}

// Flags returns the activity flags of the category a label classifies into.
func (c *Classifier) Flags(label string) Category {
	cat, _ := c.config.Lookup(c.Classify(label))
	return cat
}

func (c *Classifier) matchExactKey(key string) (string, bool) {
	for _, cat := range c.config.Categories {
		for _, p := range cat.Patterns {
			if SanitizeLabel(p) == key {
				return cat.Name, true
			}
		}
	}
	return "", false
}

func (c *Classifier) matchKeywordKey(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	// Patterns match whole underscore-delimited tokens of the key, so that
	// "complete" matches "ready_for_complete" but never "incomplete" or
	// "completely".
	padded := "_" + key + "_"
	for _, cat := range c.config.Categories {
		for _, p := range cat.Patterns {
			pk := SanitizeLabel(p)
			if pk != "" && strings.Contains(padded, "_"+pk+"_") {
				return cat.Name, true
			}
		}
	}
	return "", false
}
