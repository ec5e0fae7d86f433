// Package countdown derives the seconds left in a round from the server's
// absolute deadline. Single-player rounds are untimed. Ticking can be
// suspended while the process is stopped; on resume the remaining time is
// derived from the deadline again.
package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown is safe for concurrent use.
type Countdown struct {
	mu    sync.Mutex
	clock clockwork.Clock

	deadline  time.Time
	set       bool
	untimed   bool
	suspended bool
}

// New returns an unset Countdown.
func New(clock clockwork.Clock) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{clock: clock}
}

// SetDeadline installs a round deadline in Unix milliseconds. A nil deadline
// or a single-player round clears the countdown.
func (c *Countdown) SetDeadline(endMillis *int64, singlePlayer bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = false
	c.untimed = singlePlayer
	if endMillis == nil || singlePlayer {
		c.set = false
		return
	}
	c.deadline = time.UnixMilli(*endMillis)
	c.set = true
}

// Clear stops showing a countdown.
func (c *Countdown) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.set = false
	c.suspended = false
}

// Active reports whether a timed deadline is installed.
func (c *Countdown) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.set && !c.untimed
}

// Remaining returns whole seconds until the deadline, never negative.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.set || c.untimed {
		return 0
	}
	ms := c.deadline.Sub(c.clock.Now()).Milliseconds()
	if ms <= 0 {
		return 0
	}
	return int(ms / 1000)
}

// Suspend stops Run from ticking.
func (c *Countdown) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = true
}

// Resume restarts ticking. The deadline is left untouched.
func (c *Countdown) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = false
}

// Suspended reports whether ticking is paused.
func (c *Countdown) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspended
}

// Run calls onTick with the remaining seconds every interval until ctx is
// done. Ticks are skipped while suspended or when no deadline is active.
func (c *Countdown) Run(ctx context.Context, interval time.Duration, onTick func(remaining int)) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if c.Suspended() || !c.Active() {
				continue
			}
			onTick(c.Remaining())
		}
	}
}
