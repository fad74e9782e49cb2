package pickup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JakeFAU/pickup-checker/internal/probe"
	"github.com/JakeFAU/pickup-checker/internal/wait"
	"go.uber.org/zap"
)

// Extractor enters postal codes into the open availability UI and reads the
// store rows it renders.
type Extractor struct {
	page    Page
	clock   Clock
	timing  Timing
	settler wait.Settler
	logger  *zap.Logger
}

// NewExtractor wraps a page whose availability UI is already open.
func NewExtractor(page Page, clock Clock, timing Timing, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		page:    page,
		clock:   clock,
		timing:  timing,
		settler: wait.New(timing.SettleStrategy, timing.Settle, timing.PollInterval),
		logger:  logger.Named("extractor"),
	}
}

// Extract submits zip and returns the visible store rows. A UI that cannot
// be located yields no rows and no error. Errors are returned when the
// postal code could not be entered or ctx ended before the rows were read.
func (e *Extractor) Extract(ctx context.Context, zip string) ([]Row, error) {
	logger := e.logger.With(zap.String("zip", zip))
	rows := []Row{}

	field, ok := firstMatch(ctx, e.page, InputSelectors)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		logger.Warn("location input not found")
		return rows, nil
	}

	// A poll must not accept the previous postal code's rows, so it waits
	// for the results to differ from what was rendered before submitting.
	var before string
	stale := false
	if e.timing.SettleStrategy == wait.StrategyPoll {
		before, stale = e.fingerprint(ctx)
	}

	if err := e.enter(ctx, field, zip); err != nil {
		return nil, err
	}

	err := e.settler.Settle(ctx, e.clock, func(ctx context.Context) (bool, error) {
		now, found := e.fingerprint(ctx)
		if !found {
			stale = false
			return false, nil
		}
		return !stale || now != before, nil
	})
	if err != nil && !errors.Is(err, wait.ErrTimeout) {
		return nil, fmt.Errorf("settle results: %w", err)
	}

	blocks, ok := e.blocks(ctx, logger)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return rows, nil
	}

	for _, block := range blocks {
		rows = append(rows, e.readRow(ctx, zip, block))
	}
	logger.Debug("extracted rows", zap.Int("rows", len(rows)))
	return rows, nil
}

// blocks returns the store blocks of the results container, capped at
// MaxStoresPerZip.
func (e *Extractor) blocks(ctx context.Context, logger *zap.Logger) ([]Element, bool) {
	container, ok := firstMatch(ctx, e.page, ContainerSelectors)
	if !ok {
		logger.Warn("results container not found")
		return nil, false
	}
	blocks, err := container.Find(ctx, StoreBlockSelector)
	if err != nil {
		logger.Warn("store block lookup failed", zap.Error(err))
		return nil, false
	}
	if len(blocks) > MaxStoresPerZip {
		logger.Debug("truncating store blocks", zap.Int("found", len(blocks)))
		blocks = blocks[:MaxStoresPerZip]
	}
	return blocks, true
}

// fingerprint summarizes the rendered store rows. It reports false when no
// results container is present.
func (e *Extractor) fingerprint(ctx context.Context) (string, bool) {
	container, ok := firstMatch(ctx, e.page, ContainerSelectors)
	if !ok {
		return "", false
	}
	blocks, err := container.Find(ctx, StoreBlockSelector)
	if err != nil {
		return "", true
	}
	if len(blocks) > MaxStoresPerZip {
		blocks = blocks[:MaxStoresPerZip]
	}
	var b strings.Builder
	for _, block := range blocks {
		row := e.readRow(ctx, "", block)
		fmt.Fprintf(&b, "%s\x1f%s\x1e", row.Store, row.Message)
	}
	return b.String(), true
}

// enter replaces the field's value with zip, typing one character at a time
// so the page's input handlers fire as they would for a person.
func (e *Extractor) enter(ctx context.Context, field Element, zip string) error {
	if err := field.Clear(ctx); err != nil {
		return fmt.Errorf("clear location input: %w", err)
	}
	for i, r := range zip {
		if i > 0 {
			if err := e.clock.Sleep(ctx, e.timing.TypeDelay); err != nil {
				return fmt.Errorf("type location: %w", err)
			}
		}
		if err := field.Type(ctx, string(r)); err != nil {
			return fmt.Errorf("type location: %w", err)
		}
	}
	if err := field.Press(ctx, KeyEnter); err != nil {
		e.logger.Debug("enter key failed", zap.String("zip", zip), zap.Error(err))
	}
	return nil
}

func (e *Extractor) readRow(ctx context.Context, zip string, block Element) Row {
	name := UnknownStore
	if el, ok := firstMatch(ctx, block, NameSelectors); ok {
		if text, err := el.Text(ctx, e.timing.NameTimeout); err == nil {
			name = strings.TrimSpace(text)
		}
	}

	// The first selector with a match decides the message, even when its
	// text cannot be read.
	var msg string
	if el, ok := firstMatch(ctx, block, MessageSelectors); ok {
		if text, err := el.Text(ctx, e.timing.MessageTimeout); err == nil {
			msg = text
		}
	}

	return Row{
		Zip:       zip,
		Store:     name,
		Available: IsAvailable(msg),
		Message:   strings.TrimSpace(msg),
	}
}

// IsAvailable reports whether a pickup message announces availability.
func IsAvailable(message string) bool {
	return strings.Contains(strings.ToLower(message), "available")
}

// firstMatch returns the first element of the first selector with at least
// one match under scope. Lookup errors count as no match.
func firstMatch(ctx context.Context, scope finder, sels []Selector) (Element, bool) {
	el, _, ok := probe.First(ctx, probe.Over(sels, func(ctx context.Context, sel Selector) (Element, bool) {
		els, err := scope.Find(ctx, sel)
		if err != nil || len(els) == 0 {
			return nil, false
		}
		return els[0], true
	})...)
	return el, ok
}
