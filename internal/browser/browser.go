// Package browser drives headless Chrome through chromedp and exposes it as a
// pickup.Page.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrScopedXPath is returned when an XPath lookup is scoped to an element.
// DOM.performSearch always searches the whole document.
var ErrScopedXPath = errors.New("xpath selectors cannot be scoped to an element")

// Config controls the browser session.
type Config struct {
	Headless          bool
	ExecPath          string
	UserAgent         string
	Locale            string
	WindowWidth       int
	WindowHeight      int
	NavigationTimeout time.Duration
	LookupTimeout     time.Duration
}

func (c Config) withDefaults() Config {
	if c.Locale == "" {
		c.Locale = "en-US"
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1366
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 900
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 45 * time.Second
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 2 * time.Second
	}
	return c
}

// Session is one browser with a single tab.
type Session struct {
	cfg         Config
	logger      *zap.Logger
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	stopForward func()
	closeOnce   sync.Once
}

var _ pickup.Page = (*Session)(nil)

// Launch starts Chrome and opens a tab. Canceling ctx tears the browser down;
// otherwise the caller must Close the session.
func Launch(ctx context.Context, cfg Config, logger *zap.Logger) (*Session, error) {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("browser")

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	sugar := logger.Sugar()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(sugar.Debugf),
	)
	s := &Session{
		cfg:         cfg,
		logger:      logger,
		tab:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}
	s.stopForward = forwardCancel(ctx, func() {
		cancelTab()
		cancelAlloc()
	})

	// The first Run starts the browser process.
	if err := s.run(ctx, cfg.NavigationTimeout, emulation.SetLocaleOverride().WithLocale(cfg.Locale)); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("start chrome: %w", err)
	}
	logger.Debug("browser started", zap.Bool("headless", cfg.Headless), zap.String("locale", cfg.Locale))
	return s, nil
}

// Navigate loads url and waits for the body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.cfg.NavigationTimeout,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Find returns every element matching sel, bounded by the lookup timeout.
func (s *Session) Find(ctx context.Context, sel pickup.Selector) ([]pickup.Element, error) {
	return s.find(ctx, sel)
}

// WaitVisible blocks until the first element matching sel is visible.
func (s *Session) WaitVisible(ctx context.Context, sel pickup.Selector, timeout time.Duration) error {
	by := chromedp.ByQuery
	if sel.XPath {
		by = chromedp.BySearch
	}
	return s.run(ctx, timeout, chromedp.WaitVisible(sel.Query, by))
}

// Wheel scrolls the viewport by deltaY pixels.
func (s *Session) Wheel(ctx context.Context, deltaY float64) error {
	x := float64(s.cfg.WindowWidth) / 2
	y := float64(s.cfg.WindowHeight) / 2
	return s.run(ctx, s.cfg.LookupTimeout, input.DispatchMouseEvent(input.MouseWheel, x, y).WithDeltaX(0).WithDeltaY(deltaY))
}

// Evaluate runs script in the page and decodes its result into out.
func (s *Session) Evaluate(ctx context.Context, script string, out any) error {
	return s.run(ctx, s.cfg.LookupTimeout, chromedp.Evaluate(script, out))
}

// Screenshot captures the full page as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, s.cfg.NavigationTimeout, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// HTML returns the document's outer HTML.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.cfg.LookupTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("outer html: %w", err)
	}
	return html, nil
}

// Close shuts down the tab and the browser process. It is safe to call more
// than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.stopForward != nil {
			s.stopForward()
		}
		if cerr := chromedp.Cancel(s.tab); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = fmt.Errorf("close browser: %w", cerr)
		}
		s.cancelTab()
		s.cancelAlloc()
	})
	return err
}

func (s *Session) find(ctx context.Context, sel pickup.Selector, opts ...chromedp.QueryOption) ([]pickup.Element, error) {
	by := chromedp.ByQueryAll
	if sel.XPath {
		by = chromedp.BySearch
	}
	var nodes []*cdp.Node
	opts = append(opts, by, chromedp.AtLeast(0))
	if err := s.run(ctx, s.cfg.LookupTimeout, chromedp.Nodes(sel.Query, &nodes, opts...)); err != nil {
		return nil, fmt.Errorf("find %s: %w", sel, err)
	}
	out := make([]pickup.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, &element{s: s, node: n})
	}
	return out, nil
}

// run executes actions on the tab with timeout, also stopping when ctx is
// canceled.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.tab, timeout)
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// forwardCancel calls cancel when parent is done, until the returned stop
// func is called.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
