package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ragworks/ragchat/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Apply the embedded schema migrations to the configured PostgreSQL
database. Safe to run repeatedly; an up-to-date schema is a no-op.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runMigrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	if err := db.Migrate(cfg.PostgresURL(), logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	logger.Info("migrations applied")
	return nil
}
