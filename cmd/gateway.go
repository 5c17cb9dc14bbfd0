package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ragworks/ragchat/internal/gateway"
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Start the edge gateway",
	Long: `Start the edge gateway. Requests pass through the stage pipeline
(correlation id, client API key check, internal key stamping) and are
forwarded to the storage service.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr, err := cmd.Flags().GetString("addr")
		if err != nil {
			return fmt.Errorf("reading addr flag: %w", err)
		}
		return runGateway(addr)
	},
}

func init() {
	gatewayCmd.Flags().String("addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(gatewayCmd)
}

func runGateway(addr string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateGateway(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	if addr == "" {
		addr = cfg.GatewayAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv, err := gateway.NewServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway server: %w", err)
	}

	logger.Info("gateway ready", "addr", addr, "storage", cfg.StorageURL)
	return srv.Run(ctx, addr)
}
