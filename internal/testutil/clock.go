package testutil

import (
	"sync"
	"time"
)

// SteppingClock is a deterministic time source for tests.
//
// Each call to Now advances the clock by a fixed step, so incident timestamps
// are reproducible across runs without sleeping. Thread-safe via internal
// mutex, and resettable so the same scenario can run repeatedly with
// identical timestamps.
type SteppingClock struct {
	mu    sync.Mutex
	start time.Time
	step  time.Duration
	calls int
}

// NewSteppingClock creates a clock starting at start, advancing by step per
// call to Now.
func NewSteppingClock(start time.Time, step time.Duration) *SteppingClock {
	return &SteppingClock{start: start, step: step}
}

// Now returns the current instant and advances the clock by one step.
func (c *SteppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.calls) * c.step)
	c.calls++
	return t
}

// Reset rewinds the clock to its start instant.
//
// After Reset, the next call to Now returns the start instant again.
func (c *SteppingClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = 0
}
