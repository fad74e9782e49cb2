package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Performs one availability check",
		Long: `Opens the product page, checks every configured zip code and writes
the report. Intended to be invoked by an external scheduler.`,
		RunE: runCheckCommand,
	}
}

func runCheckCommand(cmd *cobra.Command, _ []string) error {
	a, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	svc, err := buildServices(cmd.Context(), a.cfg, a.logger, cmd.OutOrStdout(), false)
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	defer svc.Close()

	rep, runErr := svc.check(cmd.Context())

	if url := a.cfg.Metrics.PushURL; url != "" {
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 10*time.Second)
		if err := svc.metrics.Push(pushCtx, url, a.cfg.Metrics.Job); err != nil {
			a.logger.Warn("metrics push failed", zap.Error(err))
		}
		cancel()
	}

	if runErr != nil {
		return fmt.Errorf("run check: %w", runErr)
	}
	a.logger.Info("check finished",
		zap.String("run_id", rep.RunID),
		zap.Int("rows", len(rep.Rows)),
		zap.Int("errors", len(rep.Errors)),
	)
	return nil
}
