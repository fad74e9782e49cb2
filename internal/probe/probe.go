// Package probe evaluates ordered fallback chains.
//
// A chain is a prioritized list of probes. Each probe reports whether it
// found what it was looking for, and the first hit wins. The page
// automation code uses chains for every "try these selectors in order"
// decision so the ordering rules live in one place.
package probe

import "context"

// Probe reports a value and whether the lookup succeeded.
type Probe[T any] func(ctx context.Context) (T, bool)

// First evaluates probes in order and returns the first hit along with its
// index. It stops early when ctx is done. The index is -1 when nothing hit.
func First[T any](ctx context.Context, probes ...Probe[T]) (T, int, bool) {
	var zero T
	for i, p := range probes {
		if ctx.Err() != nil {
			return zero, -1, false
		}
		if v, ok := p(ctx); ok {
			return v, i, true
		}
	}
	return zero, -1, false
}

// Over builds one probe per candidate using fn.
func Over[C, T any](candidates []C, fn func(ctx context.Context, candidate C) (T, bool)) []Probe[T] {
	probes := make([]Probe[T], 0, len(candidates))
	for _, c := range candidates {
		probes = append(probes, func(ctx context.Context) (T, bool) {
			return fn(ctx, c)
		})
	}
	return probes
}
