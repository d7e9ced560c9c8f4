package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"flowlens/internal/flow"
	"flowlens/internal/ingest"
	"flowlens/internal/insights"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	analyzeAsOf string
	analyzeSave bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [export-file]",
	Short: "Run the full flow analysis over a tracker export",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := cfg.Source
		if len(args) > 0 {
			source = args[0]
		}
		if source == "" {
			return fmt.Errorf("no export file given and FLOWLENS_SOURCE is unset")
		}

		asOf := time.Now()
		if analyzeAsOf != "" {
			t, err := time.Parse(time.RFC3339, analyzeAsOf)
			if err != nil {
				return fmt.Errorf("invalid --as-of: %w", err)
			}
			asOf = t
		}

		report, analysis, skipped, err := runAnalysis(source, asOf)
		if err != nil {
			return err
		}
		if skipped > 0 {
			log.Warn().Int("rows", skipped).Msg("Skipped malformed export rows")
		}

		if analyzeSave {
			store := openStore()
			if store == nil {
				return fmt.Errorf("cannot save snapshot: history database unavailable")
			}
			defer store.Close()
			id, err := store.Save(source, report, analysis)
			if err != nil {
				return err
			}
			log.Info().Int64("id", id).Msg("Snapshot saved")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"report":   report,
			"analysis": analysis,
		})
	},
}

func runAnalysis(source string, asOf time.Time) (flow.AggregateMetricsReport, insights.AnalysisResult, int, error) {
	loaded, err := ingest.LoadFile(source)
	if err != nil {
		return flow.AggregateMetricsReport{}, insights.AnalysisResult{}, 0, err
	}

	opts := cfg.ReportOptions()
	opts.AsOf = asOf
	session, err := flow.NewSession(cfg.Categories, opts)
	if err != nil {
		return flow.AggregateMetricsReport{}, insights.AnalysisResult{}, 0, err
	}

	report := session.Report(loaded.Items)
	analysis, err := insights.Analyze(report, cfg.Thresholds)
	if err != nil {
		return flow.AggregateMetricsReport{}, insights.AnalysisResult{}, 0, err
	}
	return report, analysis, loaded.Skipped, nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeAsOf, "as-of", "", "RFC3339 analysis anchor (defaults to now)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "save the result to the history database")
	rootCmd.AddCommand(analyzeCmd)
}
