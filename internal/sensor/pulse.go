package sensor

import "sync/atomic"

// PulseCounter accumulates tachometer edges from one goroutine while
// another periodically takes the total. Take is a single atomic swap,
// so no edge is lost or counted twice between polls.
type PulseCounter struct {
	n atomic.Uint64
}

// Add records delta pulses.
func (c *PulseCounter) Add(delta uint64) {
	c.n.Add(delta)
}

// Take returns the pulses since the previous Take and resets to zero.
func (c *PulseCounter) Take() uint64 {
	return c.n.Swap(0)
}
