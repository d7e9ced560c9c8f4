package flow

import "testing"

func TestClassifyTotality(t *testing.T) {
	c := NewClassifier(DefaultCategoryConfig())

	labels := []string{
		"", "   ", "In Progress", "DONE", "Won't Do", "???", "Fertig", "進行中",
		"some-completely-unknown-state", "\t\n",
	}
	for _, label := range labels {
		cat := c.Classify(label)
		if cat == "" {
			t.Errorf("Classify(%q) returned empty category", label)
		}
		if _, ok := c.Config().Lookup(cat); !ok {
			t.Errorf("Classify(%q) returned undeclared category %q", label, cat)
		}
	}
}

func TestClassifyUnknownFallsBackToDefault(t *testing.T) {
	c := NewClassifier(DefaultCategoryConfig())

	if got := c.Classify("completely unheard of"); got != "todo" {
		t.Errorf("Expected default category todo, got %q", got)
	}
	if got := c.Classify(""); got != "todo" {
		t.Errorf("Expected empty label to classify as todo, got %q", got)
	}
}

func TestClassifyKeywordTokenBoundaries(t *testing.T) {
	c := NewClassifier(DefaultCategoryConfig())

	// Keyword patterns must not match inside larger words: "Incomplete" and
	// "undone" contain "complete" and "done" as substrings only.
	cases := map[string]string{
		"Incomplete":               "todo",
		"undone":                   "todo",
		"completely unheard of":    "todo",
		"Back In Progress (again)": "active",
		"Blocked by vendor":        "blocked",
		"Cancelled":                "cancelled",
		"Ready for QA":             "active",
	}
	for label, want := range cases {
		if got := c.Classify(label); got != want {
			t.Errorf("Classify(%q) = %q, want %q", label, got, want)
		}
	}
}

func TestClassifyExactBeatsKeyword(t *testing.T) {
	config := CategoryConfig{
		Categories: []Category{
			{Name: "done", Patterns: []string{"done"}, IsDone: true},
			{Name: "active", Patterns: []string{"review done"}, IsActive: true},
			{Name: "todo", Patterns: []string{"open"}},
		},
		Default: "todo",
	}
	c := NewClassifier(config)

	// "review done" is an exact pattern of active, even though "done" occurs
	// inside it as a keyword of an earlier category.
	if got := c.Classify("Review Done"); got != "active" {
		t.Errorf("Expected exact match to win, got %q", got)
	}
}

func TestClassifyDeclarationOrderTieBreak(t *testing.T) {
	config := CategoryConfig{
		Categories: []Category{
			{Name: "first", Patterns: []string{"ready"}},
			{Name: "second", Patterns: []string{"ready"}, IsActive: true},
		},
		Default: "first",
	}
	c := NewClassifier(config)

	if got := c.Classify("ready"); got != "first" {
		t.Errorf("Ambiguous label must resolve to the first declared category, got %q", got)
	}
	// Keyword path too: "ready for work" contains "ready" in both categories.
	if got := c.Classify("ready for work"); got != "first" {
		t.Errorf("Ambiguous keyword match must resolve to the first declared category, got %q", got)
	}
}

func TestClassifyMemoization(t *testing.T) {
	c := NewClassifier(DefaultCategoryConfig())

	first := c.Classify("In Progress")
	// The cache is keyed on the sanitized form, so variants hit the same entry.
	second := c.Classify("in  progress ")
	if first != second {
		t.Errorf("Expected identical classification for sanitized-equal labels: %q vs %q", first, second)
	}
	if len(c.cache) != 1 {
		t.Errorf("Expected a single cache entry, got %d", len(c.cache))
	}
}

func TestSanitizeLabel(t *testing.T) {
	cases := map[string]string{
		"In Progress":    "in_progress",
		"  DONE  ":       "done",
		"won't do":       "won_t_do",
		"ready-for-QA!!": "ready_for_qa",
		"":               "",
		"---":            "",
		"进行中":            "进行中",
	}
	for in, want := range cases {
		if got := SanitizeLabel(in); got != want {
			t.Errorf("SanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCategoryConfigValidate(t *testing.T) {
	valid := DefaultCategoryConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("Default config must validate: %v", err)
	}

	empty := CategoryConfig{}
	if err := empty.Validate(); err == nil {
		t.Error("Expected error for empty config")
	}

	dup := CategoryConfig{
		Categories: []Category{
			{Name: "x", Patterns: []string{"a"}},
			{Name: "x", Patterns: []string{"b"}},
		},
		Default: "x",
	}
	if err := dup.Validate(); err == nil {
		t.Error("Expected error for duplicate category names")
	}

	multiFlag := CategoryConfig{
		Categories: []Category{
			{Name: "x", Patterns: []string{"a"}, IsActive: true, IsDone: true},
		},
		Default: "x",
	}
	if err := multiFlag.Validate(); err == nil {
		t.Error("Expected error for category with two activity flags")
	}

	missingDefault := CategoryConfig{
		Categories: []Category{{Name: "x", Patterns: []string{"a"}}},
		Default:    "y",
	}
	if err := missingDefault.Validate(); err == nil {
		t.Error("Expected error for undeclared default")
	}

	emptyPatterns := CategoryConfig{
		Categories: []Category{
			{Name: "x", Patterns: nil},
			{Name: "y", Patterns: []string{"a"}},
		},
		Default: "y",
	}
	if err := emptyPatterns.Validate(); err == nil {
		t.Error("Expected error for empty pattern list on non-default category")
	}
}
