// Package pickup checks a product page for in-store pickup availability.
//
// A run loads the product page, clears any overlays and opens the
// availability UI. It then enters each postal code and reads the store rows
// the UI renders. Page access goes through the Page and Element interfaces,
// so the same procedure runs against a live browser session or a saved
// snapshot.
//
// Failures are tiered. Single element lookups degrade to placeholders or
// empty values. A failing postal code is recorded in the report and the run
// moves on. Only an unopenable availability UI ends a run early, and even
// then a report is produced.
package pickup

import (
	"context"
	"errors"
	"io"
	"time"
)

// MaxStoresPerZip caps the store blocks read for a single postal code.
const MaxStoresPerZip = 16

// UnknownStore is the name used when a store block has no readable name.
const UnknownStore = "(unknown store)"

// ModalErrorText is recorded in the report when the availability UI
// could not be opened.
const ModalErrorText = "Could not open availability modal"

// TimestampLayout formats Report.Timestamp.
const TimestampLayout = "2006-01-02 15:04:05 MST"

var (
	// ErrModalNotOpened is returned when no trigger opened the availability UI.
	ErrModalNotOpened = errors.New("availability modal not opened")
	// ErrNoMatch is returned when a selector matches nothing to click.
	ErrNoMatch = errors.New("no matching element")
)

// Row is one store's availability for a postal code.
type Row struct {
	Zip       string `json:"zip"`
	Store     string `json:"store"`
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// Report is the result of one run.
type Report struct {
	RunID     string   `json:"run_id"`
	Timestamp string   `json:"timestamp"`
	PartNotes string   `json:"part_notes"`
	Zips      []string `json:"zips"`
	Rows      []Row    `json:"rows"`
	Errors    []string `json:"errors"`
}

// AvailableCount returns how many rows are available.
func (r Report) AvailableCount() int {
	n := 0
	for _, row := range r.Rows {
		if row.Available {
			n++
		}
	}
	return n
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// Notifier delivers a hit message. Delivery is best effort and failures are
// handled by the implementation.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// ArtifactStore persists diagnostic artifacts.
type ArtifactStore interface {
	PutObject(ctx context.Context, path string, contentType string, r io.Reader) (string, error)
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Observer receives run measurements.
type Observer interface {
	ObserveZip(zip string, rows, available int)
	ObserveError(stage string)
	ObserveNotification()
	ObserveRun(outcome string, d time.Duration)
}

// Run outcomes reported to Observer.ObserveRun.
const (
	OutcomeOK             = "ok"
	OutcomePartial        = "partial"
	OutcomeModalFailed    = "modal_failed"
	OutcomeNavigateFailed = "navigate_failed"
	OutcomeLaunchFailed   = "launch_failed"
)

// Error stages reported to Observer.ObserveError.
const (
	StageLaunch   = "launch"
	StageNavigate = "navigate"
	StageModal    = "modal"
	StageZip      = "zip"
)

type nopObserver struct{}

func (nopObserver) ObserveZip(string, int, int)      {}
func (nopObserver) ObserveError(string)              {}
func (nopObserver) ObserveNotification()             {}
func (nopObserver) ObserveRun(string, time.Duration) {}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) {}

type runIDKey struct{}

// WithRunID attaches a run identifier to ctx.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext returns the run identifier stored in ctx, if any.
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
