// Package clock abstracts the wall clock so timestamp logic can be tested.
package clock

import (
	"sync"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Real implements Clock using the system time.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Fake is a controllable Clock for testing time-dependent behavior.
// Thread-safe for use across goroutines (e.g., test client + HTTP server).
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake creates a Fake frozen at the given time.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// Now returns the current fake time.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t, which may be in the past.
func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
