package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/schedule"
	"github.com/JakeFAU/pickup-checker/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd() *cobra.Command {
	var immediate bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Runs checks on a cron schedule and serves status over HTTP",
		Long: `Runs one check per tick of schedule.cron. Ticks that fire while a
check is still running are skipped. The status server exposes /healthz,
/metrics and /v1/report/latest.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatchCommand(cmd, immediate)
		},
	}
	cmd.Flags().BoolVar(&immediate, "now", false, "run one check immediately at startup")
	return cmd
}

func runWatchCommand(cmd *cobra.Command, immediate bool) error {
	ctx := cmd.Context()
	a, err := resolveApp(ctx)
	if err != nil {
		return err
	}
	svc, err := buildServices(ctx, a.cfg, a.logger, cmd.OutOrStdout(), true)
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	defer svc.Close()

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	latest := &server.Latest{}
	var running sync.Mutex
	job := func(ctx context.Context) {
		if !running.TryLock() {
			a.logger.Info("check still running, skipping")
			return
		}
		defer running.Unlock()
		rep, err := svc.check(ctx)
		latest.Set(rep)
		if err != nil {
			a.logger.Error("scheduled check failed", zap.Error(err))
		}
	}

	sched := schedule.New(svc.location, a.logger)
	if err := sched.Add(ctx, a.cfg.Schedule.Cron, job); err != nil {
		return err
	}

	status := server.New(latest, a.logger, server.Options{
		Metrics:    svc.metrics.Handler(),
		Middleware: []func(http.Handler) http.Handler{svc.metrics.Middleware},
	})
	srv := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           status.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	if immediate {
		go job(ctx)
	}
	a.logger.Info("watching", zap.String("cron", a.cfg.Schedule.Cron))
	sched.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	a.logger.Info("shutdown complete")
	return nil
}
