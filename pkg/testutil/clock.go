package testutil

import (
	"sync"
	"time"
)

// ManualClock is a clock whose time only moves when the test calls Advance.
// Timers created with After fire once the clock has been advanced past their
// deadline, which lets tests hold a transaction in its pending window.
//
// Thread-safety: all methods are safe for concurrent use.
type ManualClock struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	waiters []manualWaiter
}

type manualWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewManualClock creates a clock frozen at start.
func NewManualClock(start time.Time) *ManualClock {
	c := &ManualClock{now: start}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After returns a channel that receives once the clock reaches now+d.
// Non-positive durations fire immediately.
func (c *ManualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
	} else {
		c.waiters = append(c.waiters, manualWaiter{deadline: c.now.Add(d), ch: ch})
	}
	c.cond.Broadcast()
	return ch
}

// Advance moves the clock forward and fires every timer whose deadline has passed.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
	pending := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.now) {
			w.ch <- c.now
			continue
		}
		pending = append(pending, w)
	}
	c.waiters = pending
}

// BlockUntilWaiters blocks until at least n timers are waiting to fire.
func (c *ManualClock) BlockUntilWaiters(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.waiters) < n {
		c.cond.Wait()
	}
}

// InstantClock is frozen at a fixed time and fires every timer immediately,
// recording the requested durations.
type InstantClock struct {
	mu        sync.Mutex
	now       time.Time
	durations []time.Duration
}

// NewInstantClock creates an InstantClock frozen at now.
func NewInstantClock(now time.Time) *InstantClock {
	return &InstantClock{now: now}
}

// Now returns the frozen time.
func (c *InstantClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After records d and returns an already-fired channel.
func (c *InstantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durations = append(c.durations, d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// Durations returns a copy of every duration passed to After.
func (c *InstantClock) Durations() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.durations...)
}
