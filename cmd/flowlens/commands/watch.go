package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var watchSchedule string

var watchCmd = &cobra.Command{
	Use:   "watch [export-file]",
	Short: "Periodically re-analyze an export and save snapshots to history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := cfg.Source
		if len(args) > 0 {
			source = args[0]
		}
		if source == "" {
			return fmt.Errorf("no export file given and FLOWLENS_SOURCE is unset")
		}

		store := openStore()
		if store == nil {
			return fmt.Errorf("watch requires the history database")
		}
		defer store.Close()

		schedule := watchSchedule
		if schedule == "" {
			schedule = cfg.WatchSchedule
		}

		run := func() {
			report, analysis, skipped, err := runAnalysis(source, time.Now())
			if err != nil {
				log.Error().Err(err).Str("source", source).Msg("Scheduled analysis failed")
				return
			}
			if skipped > 0 {
				log.Warn().Int("rows", skipped).Msg("Skipped malformed export rows")
			}
			id, err := store.Save(source, report, analysis)
			if err != nil {
				log.Error().Err(err).Msg("Failed to save snapshot")
				return
			}
			log.Info().
				Int64("id", id).
				Int("items", report.TotalItems).
				Str("risk", analysis.Risk.Overall).
				Msg("Snapshot saved")
		}

		c := cron.New()
		if _, err := c.AddFunc(schedule, run); err != nil {
			return fmt.Errorf("invalid schedule %q: %w", schedule, err)
		}

		log.Info().Str("schedule", schedule).Str("source", source).Msg("Watch started")
		run()
		c.Start()
		defer c.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Info().Msg("Watch stopping")
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchSchedule, "schedule", "", "cron schedule (default from configuration)")
	rootCmd.AddCommand(watchCmd)
}
