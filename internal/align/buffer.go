package align

import (
	"github.com/roach88/tracker/internal/ir"
)

// DefaultCapacity is the per-side history size when none is configured.
const DefaultCapacity = 100

// Buffer is a fixed-capacity FIFO of states for one side.
//
// Push evicts the oldest state once full. All operations except States are
// O(1). Buffer is not safe for concurrent use; the engine loop owns it.
type Buffer struct {
	ring  []ir.State
	head  int // index of the oldest state
	count int
}

// NewBuffer creates an empty buffer. Capacity below 1 is raised to 1.
func NewBuffer(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{ring: make([]ir.State, capacity)}
}

// Push appends a state, returning the evicted state when the buffer was
// already full.
func (b *Buffer) Push(s ir.State) (evicted ir.State, ok bool) {
	if b.count == len(b.ring) {
		evicted = b.ring[b.head]
		b.ring[b.head] = s
		b.head = (b.head + 1) % len(b.ring)
		return evicted, true
	}
	b.ring[(b.head+b.count)%len(b.ring)] = s
	b.count++
	return ir.State{}, false
}

// Latest returns the newest state.
func (b *Buffer) Latest() (ir.State, bool) {
	if b.count == 0 {
		return ir.State{}, false
	}
	return b.ring[(b.head+b.count-1)%len(b.ring)], true
}

// LatestKey returns the key of the newest state, or the absent key when
// the buffer is empty.
func (b *Buffer) LatestKey() ir.Key {
	s, ok := b.Latest()
	if !ok {
		return ir.NoKey
	}
	return s.Key
}

// States returns a copy of the buffered states, oldest first.
func (b *Buffer) States() []ir.State {
	out := make([]ir.State, b.count)
	for i := range out {
		out[i] = b.ring[(b.head+i)%len(b.ring)]
	}
	return out
}

// Len returns the number of buffered states.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.ring)
}

// Clear drops every state.
func (b *Buffer) Clear() {
	// Zero the slots so payloads can be collected.
	clear(b.ring)
	b.head = 0
	b.count = 0
}
