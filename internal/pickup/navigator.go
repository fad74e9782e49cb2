package pickup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/probe"
	"go.uber.org/zap"
)

// Navigator gets a freshly loaded page into the state where the
// availability UI is open and ready for input.
type Navigator struct {
	page   Page
	clock  Clock
	timing Timing
	logger *zap.Logger
}

// NewNavigator wraps page.
func NewNavigator(page Page, clock Clock, timing Timing, logger *zap.Logger) *Navigator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{page: page, clock: clock, timing: timing, logger: logger.Named("navigator")}
}

// Load navigates to url and waits for the document to be ready.
func (n *Navigator) Load(ctx context.Context, url string) error {
	if err := n.page.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// DismissOverlays clicks every known consent or promo overlay control that
// is present. It returns how many were clicked; missing controls are skipped.
func (n *Navigator) DismissOverlays(ctx context.Context) int {
	clicked := 0
	for _, sel := range OverlaySelectors {
		if ctx.Err() != nil {
			break
		}
		err := n.click(ctx, sel, n.timing.OverlayClick)
		if err == nil {
			n.logger.Debug("dismissed overlay", zap.Stringer("selector", sel))
			clicked++
			continue
		}
		if !errors.Is(err, ErrNoMatch) {
			n.logger.Debug("overlay click failed", zap.Stringer("selector", sel), zap.Error(err))
		}
	}
	return clicked
}

// OpenAvailability scrolls the page to render lazy content and then tries
// each trigger in order. When none works it falls back to clicking the
// first CSS trigger from inside the page. It returns ErrModalNotOpened when
// every attempt fails.
func (n *Navigator) OpenAvailability(ctx context.Context) error {
	for range n.timing.ScrollSteps {
		if err := n.page.Wheel(ctx, n.timing.ScrollDelta); err != nil {
			n.logger.Debug("scroll failed", zap.Error(err))
		}
		if err := n.clock.Sleep(ctx, n.timing.ScrollPause); err != nil {
			return fmt.Errorf("%w: %w", ErrModalNotOpened, err)
		}
	}

	sel, _, ok := probe.First(ctx, probe.Over(TriggerSelectors, n.trigger)...)
	if ok {
		n.logger.Info("opened availability modal", zap.Stringer("selector", sel))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrModalNotOpened, err)
	}

	var clicked bool
	if err := n.page.Evaluate(ctx, fallbackScript(), &clicked); err != nil {
		n.logger.Warn("fallback trigger script failed", zap.Error(err))
		return ErrModalNotOpened
	}
	if !clicked {
		return ErrModalNotOpened
	}
	n.logger.Info("opened availability modal via script fallback")
	return nil
}

// trigger waits for sel to become visible and clicks it.
func (n *Navigator) trigger(ctx context.Context, sel Selector) (Selector, bool) {
	if err := n.page.WaitVisible(ctx, sel, n.timing.TriggerVisible); err != nil {
		n.logger.Debug("trigger not visible", zap.Stringer("selector", sel), zap.Error(err))
		return sel, false
	}
	if err := n.click(ctx, sel, n.timing.TriggerClick); err != nil {
		n.logger.Debug("trigger click failed", zap.Stringer("selector", sel), zap.Error(err))
		return sel, false
	}
	return sel, true
}

// click scrolls the first element matching sel into view and clicks it. It
// returns ErrNoMatch when nothing matches.
func (n *Navigator) click(ctx context.Context, sel Selector, timeout time.Duration) error {
	els, err := n.page.Find(ctx, sel)
	if err != nil {
		return fmt.Errorf("find %s: %w", sel, err)
	}
	if len(els) == 0 {
		return fmt.Errorf("%s: %w", sel, ErrNoMatch)
	}
	el := els[0]
	if err := el.ScrollIntoView(ctx); err != nil {
		return fmt.Errorf("scroll %s: %w", sel, err)
	}
	if err := n.clock.Sleep(ctx, n.timing.ClickPause); err != nil {
		return err
	}
	if err := el.Click(ctx, timeout); err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	return nil
}

func fallbackScript() string {
	queries := make([]string, 0, fallbackTriggerCount)
	for _, sel := range TriggerSelectors[:fallbackTriggerCount] {
		queries = append(queries, sel.Query)
	}
	// Marshalling a []string cannot fail.
	list, _ := json.Marshal(queries)
	return fmt.Sprintf(`(() => {
  const sels = %s;
  for (const s of sels) {
    const b = document.querySelector(s);
    if (b) { b.click(); return true; }
  }
  return false;
})()`, list)
}
