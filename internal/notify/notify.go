// Package notify delivers hit messages to chat webhooks and event buses.
//
// Every endpoint is a Sender. The Notifier fans a message out to all
// configured senders, one after another, and logs failures instead of
// returning them: a broken endpoint must never fail a check run.
package notify

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"go.uber.org/zap"
)

// Sender delivers a message to one endpoint.
type Sender interface {
	Name() string
	Send(ctx context.Context, text string) error
}

// Event is the payload published to message buses.
type Event struct {
	RunID  string    `json:"run_id"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

func newEvent(ctx context.Context, text string, now time.Time) Event {
	return Event{RunID: pickup.RunIDFromContext(ctx), Text: text, SentAt: now.UTC()}
}

// Notifier fans messages out to senders.
type Notifier struct {
	senders []Sender
	logger  *zap.Logger
}

var _ pickup.Notifier = (*Notifier)(nil)

// New returns a Notifier over senders.
func New(logger *zap.Logger, senders ...Sender) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{senders: senders, logger: logger.Named("notify")}
}

// Senders returns the configured sender names.
func (n *Notifier) Senders() []string {
	names := make([]string, 0, len(n.senders))
	for _, s := range n.senders {
		names = append(names, s.Name())
	}
	return names
}

// Notify sends text to every sender. Failures are logged and do not stop
// delivery to the remaining senders.
func (n *Notifier) Notify(ctx context.Context, text string) {
	for _, s := range n.senders {
		if err := s.Send(ctx, text); err != nil {
			n.logger.Warn("notify failed",
				zap.String("sender", s.Name()),
				zap.String("run_id", pickup.RunIDFromContext(ctx)),
				zap.Error(err),
			)
			continue
		}
		n.logger.Debug("notified", zap.String("sender", s.Name()))
	}
}

// Close releases senders that hold connections.
func (n *Notifier) Close() error {
	var errs []error
	for _, s := range n.senders {
		if c, ok := s.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
