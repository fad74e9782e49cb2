package pickup

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

var errFake = errors.New("fake failure")

// fakeClock records sleeps without waiting.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	slept   []time.Duration
	onSleep func(d time.Duration)
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 9, 20, 18, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
	hook := c.onSleep
	c.mu.Unlock()
	if hook != nil {
		hook(d)
	}
	return ctx.Err()
}

// fakeElement is a scripted node. Children are keyed by selector query.
type fakeElement struct {
	page     *fakePage
	name     string
	text     string
	textErr  error
	clickErr error
	clearErr error
	typeErr  error
	pressErr error
	panicOn  string
	onType   func(value string) error
	children map[string][]*fakeElement

	value   string
	pressed []Key
}

func (e *fakeElement) Find(_ context.Context, sel Selector) ([]Element, error) {
	if e.panicOn != "" && e.panicOn == sel.Query {
		panic("detached node")
	}
	return asElements(e.children[sel.Query]), nil
}

func (e *fakeElement) Text(context.Context, time.Duration) (string, error) {
	return e.text, e.textErr
}

func (e *fakeElement) ScrollIntoView(context.Context) error { return nil }

func (e *fakeElement) Click(context.Context, time.Duration) error {
	if e.clickErr != nil {
		return e.clickErr
	}
	if e.page != nil {
		e.page.recordClick(e.name)
	}
	return nil
}

func (e *fakeElement) Clear(context.Context) error {
	if e.clearErr != nil {
		return e.clearErr
	}
	e.value = ""
	return nil
}

func (e *fakeElement) Type(_ context.Context, text string) error {
	if e.typeErr != nil {
		return e.typeErr
	}
	e.value += text
	if e.onType != nil {
		return e.onType(e.value)
	}
	return nil
}

func (e *fakeElement) Press(_ context.Context, key Key) error {
	e.pressed = append(e.pressed, key)
	return e.pressErr
}

// fakePage serves elements by selector query.
type fakePage struct {
	mu       sync.Mutex
	elements map[string][]*fakeElement
	visible  map[string]bool
	navErr   error

	evalClicked bool
	evalErr     error
	evalScripts []string

	screenshot []byte
	shotErr    error
	html       string

	clicks  []string
	wheels  []float64
	visited []string
	closed  bool
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: map[string][]*fakeElement{},
		visible:  map[string]bool{},
	}
}

// add registers a named element under sel and returns it.
func (p *fakePage) add(sel Selector, name string) *fakeElement {
	el := &fakeElement{page: p, name: name, children: map[string][]*fakeElement{}}
	p.elements[sel.Query] = append(p.elements[sel.Query], el)
	return el
}

func (p *fakePage) recordClick(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, name)
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.visited = append(p.visited, url)
	return p.navErr
}

func (p *fakePage) Find(_ context.Context, sel Selector) ([]Element, error) {
	return asElements(p.elements[sel.Query]), nil
}

func (p *fakePage) WaitVisible(_ context.Context, sel Selector, _ time.Duration) error {
	if p.visible[sel.Query] {
		return nil
	}
	return errFake
}

func (p *fakePage) Wheel(_ context.Context, deltaY float64) error {
	p.wheels = append(p.wheels, deltaY)
	return nil
}

func (p *fakePage) Evaluate(_ context.Context, script string, out any) error {
	p.evalScripts = append(p.evalScripts, script)
	if p.evalErr != nil {
		return p.evalErr
	}
	if b, ok := out.(*bool); ok {
		*b = p.evalClicked
	}
	return nil
}

func (p *fakePage) Screenshot(context.Context) ([]byte, error) {
	return p.screenshot, p.shotErr
}

func (p *fakePage) HTML(context.Context) (string, error) {
	return p.html, nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

func asElements(in []*fakeElement) []Element {
	out := make([]Element, 0, len(in))
	for _, el := range in {
		out = append(out, el)
	}
	return out
}

// store builds a store block with the given name and message.
func store(name, message string) *fakeElement {
	block := &fakeElement{children: map[string][]*fakeElement{}}
	if name != "" {
		block.children[NameSelectors[0].Query] = []*fakeElement{{text: name}}
	}
	if message != "" {
		block.children[MessageSelectors[0].Query] = []*fakeElement{{text: message}}
	}
	return block
}

// withResults wires an input and a container holding blocks onto p.
func withResults(p *fakePage, blocks ...*fakeElement) (*fakeElement, *fakeElement) {
	input := p.add(InputSelectors[0], "input")
	container := p.add(ContainerSelectors[0], "container")
	container.children[StoreBlockSelector.Query] = blocks
	return input, container
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	runIDs   []string
	onNotify func()
}

func (n *recordingNotifier) Notify(ctx context.Context, text string) {
	n.mu.Lock()
	n.messages = append(n.messages, text)
	n.runIDs = append(n.runIDs, RunIDFromContext(ctx))
	hook := n.onNotify
	n.mu.Unlock()
	if hook != nil {
		hook()
	}
}

type memArtifacts struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memArtifacts) PutObject(_ context.Context, path, contentType string, r io.Reader) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	m.objects[path] = buf.Bytes()
	m.types[path] = contentType
	return "mem://" + path, nil
}

type staticIDs string

func (s staticIDs) NewID() (string, error) { return string(s), nil }

type recordingObserver struct {
	zips     map[string][2]int
	errors   []string
	notified int
	outcome  string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{zips: map[string][2]int{}}
}

func (o *recordingObserver) ObserveZip(zip string, rows, available int) {
	o.zips[zip] = [2]int{rows, available}
}
func (o *recordingObserver) ObserveError(stage string)                  { o.errors = append(o.errors, stage) }
func (o *recordingObserver) ObserveNotification()                       { o.notified++ }
func (o *recordingObserver) ObserveRun(outcome string, _ time.Duration) { o.outcome = outcome }

func joinClicks(p *fakePage) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return strings.Join(p.clicks, ",")
}
