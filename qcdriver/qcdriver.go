// Package qcdriver holds helpers shared by the pin and clock drivers in its
// subpackages.
package qcdriver

import (
	"time"

	"github.com/oxplot/go-qc"
)

// Clock implements qc.Clock on top of the runtime monotonic clock.
type Clock struct {
	epoch time.Time
	delay func(time.Duration)
}

// NewClock returns a clock whose Delay calls delay. If delay is nil, Delay
// busy waits on the monotonic clock.
func NewClock(delay func(time.Duration)) *Clock {
	return &Clock{
		epoch: time.Now(),
		delay: delay,
	}
}

// Now implements qc.Clock.
func (c *Clock) Now() qc.Ticks {
	return qc.Ticks(uint64(time.Since(c.epoch) / time.Microsecond))
}

// Delay implements qc.Clock.
func (c *Clock) Delay(us uint32) {
	d := time.Duration(us) * time.Microsecond
	if c.delay != nil {
		c.delay(d)
		return
	}
	for start := time.Now(); time.Since(start) < d; {
	}
}
