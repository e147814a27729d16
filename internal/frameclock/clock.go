// Package frameclock drives a per-frame callback that reports the elapsed
// time between frames. It is the only suspension point of the refresh
// scheduler: everything downstream of a tick runs synchronously.
package frameclock

import "time"

// Clock chains frame requests on a FrameSource while enabled and reports
// the gap between consecutive frames to onTick.
type Clock struct {
	src    FrameSource
	onTick func(deltaMillis float64)

	enabled bool
	stopped bool

	cancel  func()
	prev    time.Time
	hasPrev bool

	// gen invalidates callbacks from a previous enable cycle that a source
	// may already have dispatched before cancel took effect.
	gen uint64
}

// New creates a disabled Clock. Call SetEnabled(true) to start it.
func New(src FrameSource, onTick func(deltaMillis float64)) *Clock {
	return &Clock{src: src, onTick: onTick}
}

// SetEnabled starts or stops frame delivery. Disabling cancels the pending
// request and forgets the baseline timestamp so the next enable begins a
// fresh delta sequence.
func (c *Clock) SetEnabled(enabled bool) {
	if c.stopped || enabled == c.enabled {
		return
	}
	c.enabled = enabled
	if enabled {
		c.gen++
		c.request()
		return
	}
	c.halt()
}

// Enabled reports whether frames are currently being requested.
func (c *Clock) Enabled() bool {
	return c.enabled
}

// Stop disables the clock for good. Later SetEnabled calls are ignored.
func (c *Clock) Stop() {
	c.enabled = false
	c.stopped = true
	c.halt()
}

func (c *Clock) halt() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.hasPrev = false
	c.prev = time.Time{}
	c.gen++
}

func (c *Clock) request() {
	gen := c.gen
	c.cancel = c.src.RequestFrame(func(now time.Time) {
		c.frame(gen, now)
	})
}

func (c *Clock) frame(gen uint64, now time.Time) {
	if !c.enabled || gen != c.gen {
		return
	}
	c.cancel = nil

	if c.hasPrev {
		delta := float64(now.Sub(c.prev)) / float64(time.Millisecond)
		c.prev = now
		c.onTick(delta)
	} else {
		c.prev = now
		c.hasPrev = true
	}

	// onTick may have disabled the clock.
	if c.enabled && gen == c.gen {
		c.request()
	}
}
