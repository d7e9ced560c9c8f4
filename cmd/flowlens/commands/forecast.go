package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"flowlens/internal/flow"
	"flowlens/internal/forecast"
	"flowlens/internal/ingest"

	"github.com/spf13/cobra"
)

var (
	forecastBacklog int
	forecastTrials  int
	forecastSeed    int64
)

var forecastCmd = &cobra.Command{
	Use:   "forecast [export-file]",
	Short: "Forecast delivery of the remaining backlog with Monte Carlo simulation",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := cfg.Source
		if len(args) > 0 {
			source = args[0]
		}
		if source == "" {
			return fmt.Errorf("no export file given and FLOWLENS_SOURCE is unset")
		}

		loaded, err := ingest.LoadFile(source)
		if err != nil {
			return err
		}

		asOf := time.Now()
		opts := cfg.ReportOptions()
		opts.AsOf = asOf
		session, err := flow.NewSession(cfg.Categories, opts)
		if err != nil {
			return err
		}
		report := session.Report(loaded.Items)

		backlog := forecastBacklog
		if backlog == 0 {
			backlog = forecast.RemainingBacklog(report.TotalItems, report.CompletedItems, report.CancelledItems)
		}

		trials := forecastTrials
		if trials == 0 {
			trials = cfg.Forecast.Trials
		}
		seed := forecastSeed
		if seed == 0 {
			seed = cfg.Forecast.Seed
		}

		result, err := forecast.Run(cmd.Context(), forecast.SamplesFromBuckets(report.Variability.Buckets, asOf), forecast.Options{
			Backlog:    backlog,
			PeriodDays: 7,
			Trials:     trials,
			Seed:       seed,
			AsOf:       asOf,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	forecastCmd.Flags().IntVar(&forecastBacklog, "backlog", 0, "remaining item count (default: derived from the export)")
	forecastCmd.Flags().IntVar(&forecastTrials, "trials", 0, "Monte Carlo trial count")
	forecastCmd.Flags().Int64Var(&forecastSeed, "seed", 0, "fixed random seed for reproducible runs")
	rootCmd.AddCommand(forecastCmd)
}
