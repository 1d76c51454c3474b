// Package clock provides the engine's single source of event ordering: a
// process-wide, strictly monotonic sequence counter.
package clock

import "sync/atomic"

// Clock hands out strictly increasing sequence numbers. Every externally
// observable event — an order resting, a trade executing, a cancel being
// accepted or missed — stamps itself with one tick. If tick A returns a
// smaller value than tick B, A's effects are defined to precede B's.
//
// The zero value is ready to use and starts at zero; the counter is never
// reset for the lifetime of the process.
type Clock struct {
	counter uint64
}

// New returns a Clock starting at zero.
func New() *Clock {
	return &Clock{}
}

// Tick atomically fetches and increments the counter, returning the value
// assigned to the caller's event. Safe for concurrent use by any number of
// goroutines.
func (c *Clock) Tick() uint64 {
	return atomic.AddUint64(&c.counter, 1) - 1
}
