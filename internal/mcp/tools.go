package mcp

import (
	"context"
	"fmt"
	"time"

	"flowlens/internal/flow"
	"flowlens/internal/forecast"
	"flowlens/internal/ingest"
	"flowlens/internal/insights"
)

func (s *Server) listTools() interface{} {
	return map[string]interface{}{
		"tools": []interface{}{
			map[string]interface{}{
				"name":        "analyze_flow",
				"description": "Run the full flow-metrics analysis over a tracker export file: lead/cycle time, throughput, WIP, Little's Law cross-check, insights, bottlenecks and risk.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"source": map[string]interface{}{"type": "string", "description": "Path to a JSON or CSV export file"},
						"as_of":  map[string]interface{}{"type": "string", "description": "RFC3339 analysis anchor; defaults to now"},
					},
					"required": []string{"source"},
				},
			},
			map[string]interface{}{
				"name":        "forecast_delivery",
				"description": "Monte Carlo delivery forecast for the remaining backlog in a tracker export, with optimistic/realistic/pessimistic dates.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"source":  map[string]interface{}{"type": "string", "description": "Path to a JSON or CSV export file"},
						"backlog": map[string]interface{}{"type": "integer", "description": "Override the remaining item count"},
						"trials":  map[string]interface{}{"type": "integer"},
						"seed":    map[string]interface{}{"type": "integer", "description": "Fixed seed for reproducible runs"},
					},
					"required": []string{"source"},
				},
			},
			map[string]interface{}{
				"name":        "classify_status",
				"description": "Classify a workflow state label into its semantic category under the active configuration.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"label": map[string]interface{}{"type": "string"},
					},
					"required": []string{"label"},
				},
			},
			map[string]interface{}{
				"name":        "list_snapshots",
				"description": "List recently saved analysis snapshots from the history database.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"limit": map[string]interface{}{"type": "integer"},
					},
				},
			},
		},
	}
}

func (s *Server) sessionFor(asOf time.Time) (*flow.Session, error) {
	opts := s.cfg.ReportOptions()
	opts.AsOf = asOf
	return flow.NewSession(s.cfg.Categories, opts)
}

func (s *Server) handleAnalyzeFlow(args map[string]interface{}) (interface{}, error) {
	source, _ := args["source"].(string)
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}

	asOf := time.Now()
	if raw, ok := args["as_of"].(string); ok && raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("invalid as_of: %w", err)
		}
		asOf = t
	}

	loaded, err := ingest.LoadFile(source)
	if err != nil {
		return nil, err
	}

	session, err := s.sessionFor(asOf)
	if err != nil {
		return nil, err
	}
	report := session.Report(loaded.Items)
	analysis, err := insights.Analyze(report, s.cfg.Thresholds)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"report":       report,
		"analysis":     analysis,
		"skipped_rows": loaded.Skipped,
	}, nil
}

func (s *Server) handleForecastDelivery(args map[string]interface{}) (interface{}, error) {
	source, _ := args["source"].(string)
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}

	loaded, err := ingest.LoadFile(source)
	if err != nil {
		return nil, err
	}

	asOf := time.Now()
	session, err := s.sessionFor(asOf)
	if err != nil {
		return nil, err
	}
	report := session.Report(loaded.Items)

	backlog := forecast.RemainingBacklog(report.TotalItems, report.CompletedItems, report.CancelledItems)
	if v, ok := args["backlog"].(float64); ok {
		backlog = int(v)
	}

	opts := forecast.Options{
		Backlog:    backlog,
		PeriodDays: 7,
		Trials:     s.cfg.Forecast.Trials,
		Seed:       s.cfg.Forecast.Seed,
		AsOf:       asOf,
	}
	if v, ok := args["trials"].(float64); ok {
		opts.Trials = int(v)
	}
	if v, ok := args["seed"].(float64); ok {
		opts.Seed = int64(v)
	}

	return forecast.Run(context.Background(), forecast.SamplesFromBuckets(report.Variability.Buckets, asOf), opts)
}

func (s *Server) handleClassifyStatus(args map[string]interface{}) (interface{}, error) {
	label, _ := args["label"].(string)
	if label == "" {
		return nil, fmt.Errorf("label is required")
	}

	classifier := flow.NewClassifier(s.cfg.Categories)
	category := classifier.Classify(label)
	decl, _ := s.cfg.Categories.Lookup(category)

	return map[string]interface{}{
		"label":        label,
		"sanitized":    flow.SanitizeLabel(label),
		"category":     category,
		"is_active":    decl.IsActive,
		"is_done":      decl.IsDone,
		"is_blocked":   decl.IsBlocked,
		"is_cancelled": decl.IsCancelled,
	}, nil
}

func (s *Server) handleListSnapshots(args map[string]interface{}) (interface{}, error) {
	if s.store == nil {
		return nil, fmt.Errorf("history database not configured")
	}
	limit := 0
	if v, ok := args["limit"].(float64); ok {
		limit = int(v)
	}
	snaps, err := s.store.List(limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"snapshots": snaps}, nil
}
