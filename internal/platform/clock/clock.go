// Package clock abstracts wall time and timers so simulated latency can be
// driven deterministically in tests.
package clock

import "time"

// Clock supplies the current time and one-shot timers.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Real is the system clock.
type Real struct{}

// New returns the system clock.
func New() Real {
	return Real{}
}

// Now returns time.Now().
func (Real) Now() time.Time {
	return time.Now()
}

// After returns time.After(d).
func (Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

var _ Clock = Real{}
