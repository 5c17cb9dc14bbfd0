// Package cmd wires the ragchat services into a single CLI. Each service
// runs as its own subcommand so one binary covers the gateway, the storage
// tier, and schema migration.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ragworks/ragchat/internal/config"
	"github.com/ragworks/ragchat/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "ragchat - chat history service with an authenticating edge gateway",
	Long: `ragchat persists chat sessions and messages behind a two-tier boundary:
an edge gateway that validates client API keys and stamps the internal
service key, and a storage service that owns the PostgreSQL data.

Run each tier as a subcommand:

  ragchat gateway    start the edge gateway
  ragchat storage    start the storage API server
  ragchat migrate    apply database migrations`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads configuration and builds the service logger from it.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
	return cfg, logger, nil
}
