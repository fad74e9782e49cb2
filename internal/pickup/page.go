package pickup

import (
	"context"
	"time"
)

// Selector identifies elements on a page. CSS is the default; XPath covers
// text matches CSS cannot express.
type Selector struct {
	Query string
	XPath bool
}

// CSS returns a CSS selector.
func CSS(query string) Selector { return Selector{Query: query} }

// XPath returns an XPath selector.
func XPath(query string) Selector { return Selector{Query: query, XPath: true} }

func (s Selector) String() string {
	if s.XPath {
		return "xpath:" + s.Query
	}
	return s.Query
}

// Key names a keyboard key for Element.Press.
type Key string

// KeyEnter submits a form field.
const KeyEnter Key = "Enter"

// Page is a loaded document the checker can drive.
//
// Find returns every element matching sel; no match is an empty slice and a
// nil error. Implementations bound their own lookups so a missing element
// never blocks.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Find(ctx context.Context, sel Selector) ([]Element, error)
	WaitVisible(ctx context.Context, sel Selector, timeout time.Duration) error
	Wheel(ctx context.Context, deltaY float64) error
	Evaluate(ctx context.Context, script string, out any) error
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}

// Element is a node on a Page.
type Element interface {
	Find(ctx context.Context, sel Selector) ([]Element, error)
	Text(ctx context.Context, timeout time.Duration) (string, error)
	ScrollIntoView(ctx context.Context) error
	Click(ctx context.Context, timeout time.Duration) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, key Key) error
}

// finder is the lookup surface shared by Page and Element.
type finder interface {
	Find(ctx context.Context, sel Selector) ([]Element, error)
}
