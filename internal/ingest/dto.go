package ingest

import "time"

// Export is the top-level container of a tracker export file.
type Export struct {
	Total int       `json:"total"`
	Items []ItemDTO `json:"items"`
}

// ItemDTO is a single work item in a tracker export.
type ItemDTO struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	State      string            `json:"state"`
	Assignee   string            `json:"assignee,omitempty"`
	Created    string            `json:"created"`
	Closed     string            `json:"closed,omitempty"`
	History    []TransitionDTO   `json:"history,omitempty"`
	StateDates map[string]string `json:"state_dates,omitempty"`
}

// TransitionDTO is one recorded state change.
type TransitionDTO struct {
	To    string `json:"to"`
	At    string `json:"at"`
	Actor string `json:"actor,omitempty"`
}

// timeFormats lists the accepted timestamp layouts, tried in order.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses an export timestamp, trying each accepted layout.
func ParseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
