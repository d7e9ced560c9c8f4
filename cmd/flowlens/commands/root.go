package commands

import (
	"flowlens/internal/config"
	"flowlens/internal/history"
	"flowlens/internal/logging"
	"flowlens/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose bool
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "flowlens",
	Short: "Flowlens analyzes work-item flow metrics and forecasts delivery",
	Long: `Flowlens converts work-item lifecycle histories into flow metrics (lead time,
cycle time, throughput, WIP, flow efficiency), grades them against thresholds,
diagnoses bottlenecks and risk, and forecasts delivery dates with Monte Carlo
simulation. Running without a subcommand starts the MCP Stdio server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(verbose)

		var err error
		cfg, err = config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Msg("Flowlens starting")
	},
	Run: func(cmd *cobra.Command, args []string) {
		log.Info().Msg("MCP Server starting Stdio loop")
		store := openStore()
		if store != nil {
			defer store.Close()
		}
		server := mcp.NewServer(cfg, store)
		if err := server.Serve(); err != nil {
			log.Fatal().Err(err).Msg("MCP server failed")
		}
	},
}

// openStore opens the history database; a failure degrades to a nil store
// rather than aborting, since most commands work without history.
func openStore() *history.Store {
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.HistoryDB).Msg("History database unavailable")
		return nil
	}
	return store
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}
