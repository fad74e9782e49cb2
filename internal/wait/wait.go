// Package wait holds the bounded waits used to let a page settle.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout is returned by Poll when the condition never held.
var ErrTimeout = errors.New("wait: condition not met before timeout")

// Sleeper pauses for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Condition reports whether the awaited state has been reached.
type Condition func(ctx context.Context) (bool, error)

// Settler waits for a page to settle after an interaction.
type Settler interface {
	Settle(ctx context.Context, s Sleeper, cond Condition) error
}

// Fixed returns a Settler that sleeps for d and ignores the condition.
func Fixed(d time.Duration) Settler {
	return fixed{d: d}
}

type fixed struct{ d time.Duration }

func (f fixed) Settle(ctx context.Context, s Sleeper, _ Condition) error {
	return s.Sleep(ctx, f.d)
}

// Poll returns a Settler that checks cond every interval until it holds or
// the accumulated sleep reaches timeout. Time is counted in slept intervals
// rather than wall clock so fake sleepers behave deterministically.
func Poll(timeout, interval time.Duration) Settler {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return poll{timeout: timeout, interval: interval}
}

type poll struct {
	timeout  time.Duration
	interval time.Duration
}

func (p poll) Settle(ctx context.Context, s Sleeper, cond Condition) error {
	if cond == nil {
		return s.Sleep(ctx, p.timeout)
	}
	var waited time.Duration
	for {
		ok, err := cond(ctx)
		if err != nil {
			return fmt.Errorf("poll condition: %w", err)
		}
		if ok {
			return nil
		}
		if waited >= p.timeout {
			return ErrTimeout
		}
		step := min(p.interval, p.timeout-waited)
		if err := s.Sleep(ctx, step); err != nil {
			return err
		}
		waited += step
	}
}

// Strategy names accepted by New.
const (
	StrategyFixed = "fixed"
	StrategyPoll  = "poll"
)

// New builds a Settler by name. Unknown names fall back to Fixed.
func New(strategy string, d, interval time.Duration) Settler {
	if strategy == StrategyPoll {
		return Poll(d, interval)
	}
	return Fixed(d)
}
