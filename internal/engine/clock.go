package engine

import (
	"sync/atomic"

	"github.com/roach88/tracker/internal/ir"
)

// Clock is the monotonic arrival counter that stamps State.Seq.
//
// Every event accepted by the loop, on either side, gets the next value.
// Seq gives a total order across both sides that does not depend on wall
// clocks, which makes traces reproducible and breaks ties when two events
// carry the same arrival timestamp. The clock also keeps per-side arrival
// counts for the run summary.
//
// Thread-safety: reads are safe from any goroutine (atomic operations),
// so observers may sample Count while the loop calls Next.
type Clock struct {
	seq   atomic.Int64
	sides [2]atomic.Int64
}

// NewClock creates a new clock starting at 0. The first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next records an arrival on side and returns its sequence number.
func (c *Clock) Next(side ir.Side) int64 {
	c.sides[side].Add(1)
	return c.seq.Add(1)
}

// Count returns the number of arrivals recorded for side.
func (c *Clock) Count(side ir.Side) int64 {
	return c.sides[side].Load()
}
