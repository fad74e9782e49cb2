// Package system provides the wall clock used by real runs.
package system

import (
	"context"
	"time"
)

// Clock implements pickup.Clock with time.Now and timers.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time in UTC. Callers convert to the report zone.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Sleep pauses for d, returning early with ctx.Err() when ctx is done.
func (Clock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
