// Package fakeclock provides a controllable Clock implementation for testing.
package fakeclock

import (
	"sync"
	"time"

	"github.com/acolita/termhost/internal/ports"
)

// Clock is a fake clock that can be controlled in tests.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// New creates a new fake clock initialized to the given time.
func New(initial time.Time) *Clock {
	return &Clock{current: initial}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the clock forward by duration d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Set sets the clock to a specific time.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Ensure Clock implements ports.Clock.
var _ ports.Clock = (*Clock)(nil)
