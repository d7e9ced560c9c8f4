package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"flowlens/internal/flow"
	"flowlens/internal/insights"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Snapshot is one persisted analysis run.
type Snapshot struct {
	ID             int64     `json:"id"`
	Source         string    `json:"source"`
	AsOf           time.Time `json:"as_of"`
	TotalItems     int       `json:"total_items"`
	CompletedItems int       `json:"completed_items"`
	OverallRisk    string    `json:"overall_risk"`
	SavedAt        time.Time `json:"saved_at"`
}

// Store persists reports and analysis results for trend review across runs.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		source          TEXT NOT NULL DEFAULT '',
		as_of           DATETIME NOT NULL,
		total_items     INTEGER NOT NULL,
		completed_items INTEGER NOT NULL,
		overall_risk    TEXT NOT NULL DEFAULT '',
		report_json     TEXT NOT NULL,
		analysis_json   TEXT NOT NULL DEFAULT '',
		saved_at        DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_as_of ON snapshots(as_of);
	CREATE INDEX IF NOT EXISTS idx_snapshots_source ON snapshots(source);
	`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("history: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists one report/analysis pair and returns the snapshot id.
func (s *Store) Save(source string, report flow.AggregateMetricsReport, analysis insights.AnalysisResult) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("history: encode report: %w", err)
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return 0, fmt.Errorf("history: encode analysis: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO snapshots (source, as_of, total_items, completed_items, overall_risk, report_json, analysis_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		source, report.AsOf, report.TotalItems, report.CompletedItems,
		analysis.Risk.Overall, string(reportJSON), string(analysisJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("history: insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	log.Debug().Int64("id", id).Str("source", source).Msg("snapshot saved")
	return id, nil
}

// List returns the most recent snapshots, newest first.
func (s *Store) List(limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, source, as_of, total_items, completed_items, overall_risk, saved_at
		 FROM snapshots ORDER BY as_of DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.Source, &snap.AsOf, &snap.TotalItems,
			&snap.CompletedItems, &snap.OverallRisk, &snap.SavedAt); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}

// Report loads the stored aggregate report for a snapshot.
func (s *Store) Report(id int64) (flow.AggregateMetricsReport, error) {
	var raw string
	err := s.db.QueryRow(`SELECT report_json FROM snapshots WHERE id = ?`, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return flow.AggregateMetricsReport{}, fmt.Errorf("history: snapshot %d not found", id)
	}
	if err != nil {
		return flow.AggregateMetricsReport{}, err
	}

	var report flow.AggregateMetricsReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return flow.AggregateMetricsReport{}, fmt.Errorf("history: decode snapshot %d: %w", id, err)
	}
	return report, nil
}

// Prune deletes snapshots older than the cutoff, returning the count removed.
func (s *Store) Prune(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE as_of < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return res.RowsAffected()
}
