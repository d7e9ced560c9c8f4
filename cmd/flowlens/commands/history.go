package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	historyLimit     int
	historyPruneDays int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved analysis snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := openStore()
		if store == nil {
			return fmt.Errorf("history database unavailable")
		}
		defer store.Close()

		if historyPruneDays > 0 {
			cutoff := time.Now().AddDate(0, 0, -historyPruneDays)
			removed, err := store.Prune(cutoff)
			if err != nil {
				return err
			}
			log.Info().Int64("removed", removed).Time("before", cutoff).Msg("Pruned snapshots")
		}

		snaps, err := store.List(historyLimit)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snaps)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum snapshots to list")
	historyCmd.Flags().IntVar(&historyPruneDays, "prune-older-than", 0, "delete snapshots older than this many days before listing")
	rootCmd.AddCommand(historyCmd)
}
