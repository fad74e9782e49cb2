// Package replay serves a saved HTML snapshot as a pickup.Page.
//
// Snapshots are written when the availability modal cannot be opened, and
// can also be saved by hand from a browser. Replaying one runs the same
// selector chains offline, which is the quickest way to check whether a
// markup change broke extraction.
//
// The document is static. CSS selectors run through goquery and XPath
// selectors through htmlquery. Typing updates the input's value attribute
// and clicks are recorded, but no script runs.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

var (
	// ErrUnsupported is returned for operations that need a live browser.
	ErrUnsupported = errors.New("replay: operation needs a live browser")
	// ErrNotFound is returned when a wait finds no matching element.
	ErrNotFound = errors.New("replay: no matching element")
	// ErrDisabled is returned when clicking a disabled element.
	ErrDisabled = errors.New("replay: element is disabled")
)

// Page is a static document.
type Page struct {
	doc *goquery.Document

	mu     sync.Mutex
	clicks []string
}

var _ pickup.Page = (*Page)(nil)

// New parses an HTML document from r.
func New(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return &Page{doc: doc}, nil
}

// Load parses the HTML file at path.
func Load(path string) (*Page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return New(f)
}

// Navigate is a no-op. The snapshot itself never changes.
func (p *Page) Navigate(context.Context, string) error { return nil }

// Find returns the elements matching sel.
func (p *Page) Find(_ context.Context, sel pickup.Selector) ([]pickup.Element, error) {
	matched, err := find(p.doc.Selection, sel)
	if err != nil {
		return nil, err
	}
	return p.wrap(matched), nil
}

// WaitVisible succeeds when sel matches at least one element.
func (p *Page) WaitVisible(_ context.Context, sel pickup.Selector, _ time.Duration) error {
	matched, err := find(p.doc.Selection, sel)
	if err != nil {
		return err
	}
	if matched.Length() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return nil
}

// Wheel is a no-op; the whole snapshot is already rendered.
func (p *Page) Wheel(context.Context, float64) error { return nil }

// Evaluate is not supported.
func (p *Page) Evaluate(context.Context, string, any) error { return ErrUnsupported }

// Screenshot is not supported.
func (p *Page) Screenshot(context.Context) ([]byte, error) { return nil, ErrUnsupported }

// HTML renders the current document, including typed values.
func (p *Page) HTML(context.Context) (string, error) {
	html, err := p.doc.Html()
	if err != nil {
		return "", fmt.Errorf("render snapshot: %w", err)
	}
	return html, nil
}

// Close is a no-op.
func (p *Page) Close() error { return nil }

// Clicks returns a description of every clicked element, in order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

func (p *Page) wrap(sel *goquery.Selection) []pickup.Element {
	out := make([]pickup.Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &element{page: p, sel: s})
	})
	return out
}

// find evaluates sel under scope. XPath results are filtered to scope's
// descendants, since an absolute expression searches the whole document.
func find(scope *goquery.Selection, sel pickup.Selector) (*goquery.Selection, error) {
	if !sel.XPath {
		return scope.Find(sel.Query), nil
	}
	var matched []*html.Node
	for _, top := range scope.Nodes {
		nodes, err := htmlquery.QueryAll(top, sel.Query)
		if err != nil {
			return nil, fmt.Errorf("xpath %q: %w", sel.Query, err)
		}
		matched = append(matched, nodes...)
	}
	return scope.FindNodes(matched...), nil
}

type element struct {
	page *Page
	sel  *goquery.Selection
}

func (e *element) Find(_ context.Context, sel pickup.Selector) ([]pickup.Element, error) {
	matched, err := find(e.sel, sel)
	if err != nil {
		return nil, err
	}
	return e.page.wrap(matched), nil
}

// Text approximates innerText by collapsing whitespace.
func (e *element) Text(context.Context, time.Duration) (string, error) {
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

func (e *element) ScrollIntoView(context.Context) error { return nil }

func (e *element) Click(context.Context, time.Duration) error {
	if _, disabled := e.sel.Attr("disabled"); disabled {
		return ErrDisabled
	}
	e.page.mu.Lock()
	defer e.page.mu.Unlock()
	e.page.clicks = append(e.page.clicks, describe(e.sel))
	return nil
}

func (e *element) Clear(context.Context) error {
	e.sel.SetAttr("value", "")
	return nil
}

func (e *element) Type(_ context.Context, text string) error {
	e.sel.SetAttr("value", e.sel.AttrOr("value", "")+text)
	return nil
}

func (e *element) Press(context.Context, pickup.Key) error { return nil }

// describe renders a short tag#id.class label for logs and tests.
func describe(s *goquery.Selection) string {
	var b strings.Builder
	b.WriteString(goquery.NodeName(s))
	if id, ok := s.Attr("id"); ok && id != "" {
		b.WriteString("#" + id)
	}
	if class, ok := s.Attr("class"); ok {
		for _, c := range strings.Fields(class) {
			b.WriteString("." + c)
		}
	}
	if autom, ok := s.Attr("data-autom"); ok {
		b.WriteString("[data-autom=" + autom + "]")
	}
	return b.String()
}
