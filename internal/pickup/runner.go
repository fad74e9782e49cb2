package pickup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Launcher opens a fresh page for one run.
type Launcher func(ctx context.Context) (Page, error)

// RunConfig is the per-run input.
type RunConfig struct {
	ProductURL string
	Zips       []string
	PartNotes  string
	Location   *time.Location
	Timing     Timing
	// ScreenshotName and SnapshotName are the artifact paths written when
	// the availability UI cannot be opened. Empty disables that artifact.
	ScreenshotName string
	SnapshotName   string
}

// Deps are the collaborators a Runner needs. Only Launch and Clock are
// required.
type Deps struct {
	Launch    Launcher
	Clock     Clock
	IDs       IDGenerator
	Notifier  Notifier
	Artifacts ArtifactStore
	Observer  Observer
	Logger    *zap.Logger
}

// Runner sequences one availability check.
type Runner struct {
	cfg  RunConfig
	deps Deps
	log  *zap.Logger
}

// NewRunner validates deps and fills optional collaborators with no-ops.
func NewRunner(cfg RunConfig, deps Deps) (*Runner, error) {
	if deps.Launch == nil {
		return nil, errors.New("runner: launcher is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("runner: clock is required")
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Runner{cfg: cfg, deps: deps, log: deps.Logger.Named("runner")}, nil
}

// Run performs one check and returns its report. The report is always
// populated. The error is non-nil only when no browser page could be
// launched, in which case the report carries that failure too.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	start := r.deps.Clock.Now()
	rep := r.newReport(start)
	ctx = WithRunID(ctx, rep.RunID)
	log := r.log.With(zap.String("run_id", rep.RunID))

	outcome := OutcomeOK
	defer func() {
		r.deps.Observer.ObserveRun(outcome, r.deps.Clock.Now().Sub(start))
	}()

	page, err := r.deps.Launch(ctx)
	if err != nil {
		outcome = OutcomeLaunchFailed
		r.deps.Observer.ObserveError(StageLaunch)
		rep.Errors = append(rep.Errors, fmt.Sprintf("launch browser: %v", err))
		return rep, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("close page", zap.Error(err))
		}
	}()

	nav := NewNavigator(page, r.deps.Clock, r.cfg.Timing, log)
	if err := nav.Load(ctx, r.cfg.ProductURL); err != nil {
		outcome = OutcomeNavigateFailed
		r.deps.Observer.ObserveError(StageNavigate)
		log.Error("load product page", zap.Error(err))
		rep.Errors = append(rep.Errors, err.Error())
		return rep, nil
	}

	dismissed := nav.DismissOverlays(ctx)
	log.Debug("overlays dismissed", zap.Int("count", dismissed))

	if err := nav.OpenAvailability(ctx); err != nil {
		outcome = OutcomeModalFailed
		r.deps.Observer.ObserveError(StageModal)
		log.Error("open availability modal", zap.Error(err))
		rep.Errors = append(rep.Errors, ModalErrorText)
		r.captureDiagnostics(ctx, page, log)
		return rep, nil
	}

	ext := NewExtractor(page, r.deps.Clock, r.cfg.Timing, log)
	for _, zip := range r.cfg.Zips {
		err := ctx.Err()
		if err == nil {
			var rows []Row
			rows, err = r.checkZip(ctx, ext, zip, log)
			rep.Rows = append(rep.Rows, rows...)
		}
		if err != nil {
			outcome = OutcomePartial
			r.deps.Observer.ObserveError(StageZip)
			log.Warn("zip check failed", zap.String("zip", zip), zap.Error(err))
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", zip, err))
			// Remaining zips are not attempted once the run is canceled.
			if ctx.Err() != nil {
				break
			}
		}
	}

	log.Info("run complete",
		zap.Int("rows", len(rep.Rows)),
		zap.Int("available", rep.AvailableCount()),
		zap.Int("errors", len(rep.Errors)),
	)
	return rep, nil
}

func (r *Runner) newReport(start time.Time) Report {
	rep := Report{
		Timestamp: start.In(r.cfg.Location).Format(TimestampLayout),
		PartNotes: r.cfg.PartNotes,
		Zips:      append([]string{}, r.cfg.Zips...),
		Rows:      []Row{},
		Errors:    []string{},
	}
	if r.deps.IDs != nil {
		id, err := r.deps.IDs.NewID()
		if err != nil {
			r.log.Warn("generate run id", zap.Error(err))
		}
		rep.RunID = id
	}
	return rep
}

// checkZip extracts one zip and notifies on hits. A panic anywhere in the
// zip is converted to an error so later zips still run.
func (r *Runner) checkZip(ctx context.Context, ext *Extractor, zip string, log *zap.Logger) (rows []Row, err error) {
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	rows, err = ext.Extract(ctx, zip)
	if err != nil {
		return nil, err
	}
	hits := Hits(rows)
	r.deps.Observer.ObserveZip(zip, len(rows), len(hits))
	if len(hits) == 0 {
		return rows, nil
	}
	text := HitMessage(zip, hits)
	log.Info(text)
	r.deps.Notifier.Notify(ctx, text)
	r.deps.Observer.ObserveNotification()
	return rows, nil
}

// captureDiagnostics saves a screenshot and the page HTML. Failures are
// logged only.
func (r *Runner) captureDiagnostics(ctx context.Context, page Page, log *zap.Logger) {
	if r.deps.Artifacts == nil {
		return
	}
	if name := r.cfg.ScreenshotName; name != "" {
		if buf, err := page.Screenshot(ctx); err != nil {
			log.Warn("capture screenshot", zap.Error(err))
		} else if uri, err := r.deps.Artifacts.PutObject(ctx, name, "image/png", bytes.NewReader(buf)); err != nil {
			log.Warn("store screenshot", zap.Error(err))
		} else {
			log.Info("saved screenshot", zap.String("uri", uri))
		}
	}
	if name := r.cfg.SnapshotName; name != "" {
		if html, err := page.HTML(ctx); err != nil {
			log.Warn("capture page html", zap.Error(err))
		} else if uri, err := r.deps.Artifacts.PutObject(ctx, name, "text/html; charset=utf-8", bytes.NewReader([]byte(html))); err != nil {
			log.Warn("store page html", zap.Error(err))
		} else {
			log.Info("saved page html", zap.String("uri", uri))
		}
	}
}
