package pickup

import "time"

// Timing holds the waits and timeouts used while driving the page.
type Timing struct {
	OverlayClick   time.Duration
	ScrollSteps    int
	ScrollDelta    float64
	ScrollPause    time.Duration
	TriggerVisible time.Duration
	TriggerClick   time.Duration
	ClickPause     time.Duration
	TypeDelay      time.Duration
	Settle         time.Duration
	SettleStrategy string
	PollInterval   time.Duration
	NameTimeout    time.Duration
	MessageTimeout time.Duration
}

// DefaultTiming returns the waits tuned against the live page.
func DefaultTiming() Timing {
	return Timing{
		OverlayClick:   1200 * time.Millisecond,
		ScrollSteps:    6,
		ScrollDelta:    1000,
		ScrollPause:    150 * time.Millisecond,
		TriggerVisible: 3 * time.Second,
		TriggerClick:   2500 * time.Millisecond,
		ClickPause:     150 * time.Millisecond,
		TypeDelay:      40 * time.Millisecond,
		Settle:         1700 * time.Millisecond,
		SettleStrategy: "fixed",
		PollInterval:   200 * time.Millisecond,
		NameTimeout:    1500 * time.Millisecond,
		MessageTimeout: time.Second,
	}
}
