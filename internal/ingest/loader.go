package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flowlens/internal/workitem"

	"github.com/rs/zerolog/log"
)

// LoadResult carries the parsed items plus counts of rows that were skipped
// as malformed. Malformed rows never abort a load.
type LoadResult struct {
	Items   []workitem.RawWorkItem
	Skipped int
}

// LoadFile reads a tracker export, dispatching on extension: .json for the
// export format, .csv for the flat table format.
func LoadFile(path string) (LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("ingest: open %s: %w", path, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(f)
	default:
		return LoadJSON(f)
	}
}

// LoadJSON decodes an Export document into raw work items. Items with a
// missing ID or unparseable creation timestamp are skipped and counted.
func LoadJSON(r io.Reader) (LoadResult, error) {
	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return LoadResult{}, fmt.Errorf("ingest: decode export: %w", err)
	}

	var result LoadResult
	for _, dto := range export.Items {
		item, ok := convertItem(dto)
		if !ok {
			result.Skipped++
			continue
		}
		result.Items = append(result.Items, item)
	}

	log.Debug().Int("items", len(result.Items)).Int("skipped", result.Skipped).Msg("loaded json export")
	return result, nil
}

func convertItem(dto ItemDTO) (workitem.RawWorkItem, bool) {
	if dto.ID == "" {
		return workitem.RawWorkItem{}, false
	}
	created, err := ParseTime(dto.Created)
	if err != nil {
		log.Warn().Str("id", dto.ID).Str("created", dto.Created).Msg("skipping item with bad creation date")
		return workitem.RawWorkItem{}, false
	}

	item := workitem.RawWorkItem{
		ID:        dto.ID,
		Type:      dto.Type,
		State:     dto.State,
		Assignee:  dto.Assignee,
		CreatedAt: created,
	}

	if dto.Closed != "" {
		if t, err := ParseTime(dto.Closed); err == nil {
			item.ClosedAt = &t
		}
	}

	for _, h := range dto.History {
		at, err := ParseTime(h.At)
		if err != nil {
			// Malformed transitions are dropped here; the normalizer counts
			// date-resolution anomalies separately.
			continue
		}
		item.Transitions = append(item.Transitions, workitem.Transition{
			ToState: h.To,
			At:      at,
			Actor:   h.Actor,
		})
	}

	if len(dto.StateDates) > 0 {
		item.StateDates = make(map[string]time.Time, len(dto.StateDates))
		for state, raw := range dto.StateDates {
			if t, err := ParseTime(raw); err == nil {
				item.StateDates[state] = t
			}
		}
	}

	return item, true
}

// csv column layout: id,type,state,assignee,created,closed,transitions
// where transitions is "state@timestamp;state@timestamp;...".
const csvColumns = 7

// LoadCSV reads the flat table export format. The header row is required;
// malformed data rows are skipped and counted.
func LoadCSV(r io.Reader) (LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return LoadResult{}, fmt.Errorf("ingest: read csv: %w", err)
	}
	if len(records) == 0 {
		return LoadResult{}, fmt.Errorf("ingest: csv has no header row")
	}

	var result LoadResult
	for _, row := range records[1:] {
		if len(row) < 5 || row[0] == "" {
			result.Skipped++
			continue
		}
		created, err := ParseTime(row[4])
		if err != nil {
			result.Skipped++
			continue
		}
		item := workitem.RawWorkItem{
			ID:        row[0],
			Type:      row[1],
			State:     row[2],
			Assignee:  row[3],
			CreatedAt: created,
		}
		if len(row) > 5 && row[5] != "" {
			if t, err := ParseTime(row[5]); err == nil {
				item.ClosedAt = &t
			}
		}
		if len(row) > 6 && row[6] != "" {
			item.Transitions = parseTransitionList(row[6])
		}
		result.Items = append(result.Items, item)
	}

	log.Debug().Int("items", len(result.Items)).Int("skipped", result.Skipped).Msg("loaded csv export")
	return result, nil
}

func parseTransitionList(s string) []workitem.Transition {
	var out []workitem.Transition
	for _, part := range strings.Split(s, ";") {
		state, ts, ok := strings.Cut(strings.TrimSpace(part), "@")
		if !ok {
			continue
		}
		at, err := ParseTime(ts)
		if err != nil {
			continue
		}
		out = append(out, workitem.Transition{ToState: state, At: at})
	}
	return out
}
