package cmd

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/browser"
	"github.com/JakeFAU/pickup-checker/internal/clock/system"
	"github.com/JakeFAU/pickup-checker/internal/config"
	"github.com/JakeFAU/pickup-checker/internal/id/uuid"
	"github.com/JakeFAU/pickup-checker/internal/metrics"
	"github.com/JakeFAU/pickup-checker/internal/notify"
	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/JakeFAU/pickup-checker/internal/report"
	"github.com/JakeFAU/pickup-checker/internal/storage"
	"github.com/JakeFAU/pickup-checker/internal/storage/gcs"
	"github.com/JakeFAU/pickup-checker/internal/storage/local"
	"go.uber.org/zap"
)

// services are the long-lived collaborators shared by every run.
type services struct {
	cfg      config.Config
	logger   *zap.Logger
	notifier *notify.Notifier
	store    storage.BlobStore
	writer   *report.Writer
	metrics  *metrics.Recorder
	location *time.Location
	closers  []io.Closer
}

// buildServices wires storage, notification and metrics from cfg. Optional
// backends that cannot be reached are logged and skipped.
func buildServices(ctx context.Context, cfg config.Config, logger *zap.Logger, stdout io.Writer, withRuntime bool) (*services, error) {
	s := &services{cfg: cfg, logger: logger}

	loc, err := cfg.Location()
	if err != nil {
		logger.Warn("unknown time zone, using UTC", zap.Error(err))
	}
	s.location = loc

	primary, err := local.New(local.Config{BaseDir: cfg.Output.Dir})
	if err != nil {
		return nil, err
	}
	var secondaries []storage.BlobStore
	if cfg.Storage.GCSBucket != "" {
		mirror, err := gcs.Open(ctx, gcs.Config{Bucket: cfg.Storage.GCSBucket, Prefix: cfg.Storage.Prefix})
		if err != nil {
			logger.Warn("gcs mirror disabled", zap.Error(err))
		} else {
			secondaries = append(secondaries, mirror)
			s.closers = append(s.closers, mirror)
		}
	}
	s.store = storage.NewMirror(logger, primary, secondaries...)

	s.notifier = notify.Build(ctx, cfg.NotifyOptions(), logger)
	s.closers = append(s.closers, s.notifier)

	if !cfg.Output.Stdout {
		stdout = nil
	}
	s.writer = report.NewWriter(s.store, stdout, report.Config{
		ReportName:  cfg.Output.ReportName,
		SummaryName: cfg.Output.SummaryName,
	}, logger)
	s.metrics = metrics.New(withRuntime)
	return s, nil
}

// newRunner builds a runner that launches a fresh browser per run.
func (s *services) newRunner() (*pickup.Runner, error) {
	browserCfg := s.cfg.BrowserOptions()
	launch := func(ctx context.Context) (pickup.Page, error) {
		session, err := browser.Launch(ctx, browserCfg, s.logger)
		if err != nil {
			return nil, err
		}
		return session, nil
	}
	return pickup.NewRunner(pickup.RunConfig{
		ProductURL:     s.cfg.Check.ProductURL,
		Zips:           s.cfg.Check.ZipCodes,
		PartNotes:      s.cfg.Check.PartNotes,
		Location:       s.location,
		Timing:         s.cfg.PickupTiming(),
		ScreenshotName: s.cfg.Output.ScreenshotName,
		SnapshotName:   s.cfg.Output.SnapshotName,
	}, pickup.Deps{
		Launch:    launch,
		Clock:     system.New(),
		IDs:       uuid.New(),
		Notifier:  s.notifier,
		Artifacts: s.store,
		Observer:  s.metrics,
		Logger:    s.logger,
	})
}

// check performs one run and persists its report. The returned report is
// valid even when err is non-nil.
func (s *services) check(ctx context.Context) (pickup.Report, error) {
	runner, err := s.newRunner()
	if err != nil {
		return pickup.Report{}, err
	}
	rep, runErr := runner.Run(ctx)
	if err := s.writer.Write(ctx, rep); err != nil {
		return rep, errors.Join(runErr, err)
	}
	return rep, runErr
}

func (s *services) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			s.logger.Warn("close failed", zap.Error(err))
		}
	}
}
