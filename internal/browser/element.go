package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

type element struct {
	s    *Session
	node *cdp.Node
}

func (e *element) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

func (e *element) Find(ctx context.Context, sel pickup.Selector) ([]pickup.Element, error) {
	if sel.XPath {
		return nil, ErrScopedXPath
	}
	return e.s.find(ctx, sel, chromedp.FromNode(e.node))
}

func (e *element) Text(ctx context.Context, timeout time.Duration) (string, error) {
	var text string
	if err := e.s.run(ctx, timeout, chromedp.Text(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	return text, nil
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	return e.s.run(ctx, e.s.cfg.LookupTimeout, chromedp.ScrollIntoView(e.ids(), chromedp.ByNodeID))
}

func (e *element) Click(ctx context.Context, timeout time.Duration) error {
	return e.s.run(ctx, timeout, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

func (e *element) Clear(ctx context.Context) error {
	return e.s.run(ctx, e.s.cfg.LookupTimeout, chromedp.Clear(e.ids(), chromedp.ByNodeID))
}

func (e *element) Type(ctx context.Context, text string) error {
	return e.s.run(ctx, e.s.cfg.LookupTimeout, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *element) Press(ctx context.Context, key pickup.Key) error {
	return e.s.run(ctx, e.s.cfg.LookupTimeout, chromedp.SendKeys(e.ids(), keyText(key), chromedp.ByNodeID))
}

// keyText maps a named key to the rune sequence kb understands.
func keyText(key pickup.Key) string {
	switch key {
	case pickup.KeyEnter:
		return kb.Enter
	default:
		return string(key)
	}
}
