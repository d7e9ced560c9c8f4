package commands

import (
	"flowlens/internal/mcp"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP Stdio server (same as running with no subcommand)",
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

func init() {
	rootCmd.AddCommand(serveCmd)
}
