// Package cmd defines and implements the CLI commands for the pickupcheck executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/JakeFAU/pickup-checker/internal/config"
	"github.com/JakeFAU/pickup-checker/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// appKeyType is the key for storing the loaded app in the context.
type appKeyType string

const appKey appKeyType = "app"

// app carries what every subcommand needs.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "pickupcheck",
		Short: "Checks in-store pickup availability for a product.",
		Long: `pickupcheck drives a headless browser to a product page, opens the
store availability dialog, and reports which nearby stores can hand the
product over for pickup. Hits are announced on the configured channels and
every run leaves a JSON report behind.`,
		SilenceUsage: true,

		// Load config and the logger before any subcommand runs.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.LoggingOptions())
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, &app{cfg: cfg, logger: logger}))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app); ok {
				_ = a.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON)")

	cmd.AddCommand(newRunCmd(), newWatchCmd(), newReplayCmd())
	return cmd
}

func resolveApp(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey).(*app)
	if !ok || a == nil {
		return nil, errors.New("application not initialized")
	}
	return a, nil
}

// Execute is the main entry point. SIGINT and SIGTERM cancel the root
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		zap.L().Fatal("command execution failed", zap.Error(err))
	}
}
