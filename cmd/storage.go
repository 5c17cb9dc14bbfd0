package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/ragworks/ragchat/internal/api"
	"github.com/ragworks/ragchat/internal/postgres"
	"github.com/ragworks/ragchat/internal/store"
)

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Start the storage API server",
	Long: `Start the storage API server. It owns the PostgreSQL data and only
accepts requests carrying the internal service key; health probes are
public. Run "ragchat migrate" first to bring the schema up to date.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			return fmt.Errorf("reading addr flag: %w", err)
		}
		return runStorage(addr)
	},
}

func init() {
	storageCmd.Flags().String("addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(storageCmd)
}

func runStorage(addr string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if addr == "" {
		addr = cfg.StorageAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return fmt.Errorf("creating connection pool: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	queries := postgres.New(pool)
	srv, err := api.NewServer(api.ServerConfig{
		Logger:         logger,
		Sessions:       store.NewSessionStore(queries, pool, logger),
		Messages:       store.NewMessageStore(queries, pool, logger),
		Pool:           pool,
		InternalKey:    cfg.InternalServiceKey,
		PublicPrefixes: cfg.PublicPrefixes,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	logger.Info("storage ready",
		"addr", addr,
		"api", "/api/v1/*",
		"health", "/health, /ready",
	)
	return srv.Run(ctx, addr)
}
