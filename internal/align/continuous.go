package align

import (
	"github.com/roach88/tracker/internal/ir"
)

// Verdict is the outcome of comparing the latest key on each side.
type Verdict int

const (
	// Idle means neither side has a keyed latest state.
	Idle Verdict = iota
	// Aligned means both latest keys are present and equal.
	Aligned
	// OutOfSync means both latest keys are present and differ.
	OutOfSync
	// Waiting means exactly one side has a keyed latest state.
	Waiting
)

func (v Verdict) String() string {
	switch v {
	case Aligned:
		return "aligned"
	case OutOfSync:
		return "out-of-sync"
	case Waiting:
		return "waiting"
	default:
		return "idle"
	}
}

// Decision is the continuous-mode verdict for one loop turn.
type Decision struct {
	Verdict Verdict

	// Ahead is the side holding a key when Verdict is Waiting.
	Ahead ir.Side

	Left  ir.Key
	Right ir.Key
}

// Check decides continuous alignment from the latest key of each side.
func Check(left, right ir.Key) Decision {
	d := Decision{Left: left, Right: right}
	switch {
	case left.Matches(right):
		d.Verdict = Aligned
	case left.Present() && right.Present():
		d.Verdict = OutOfSync
	case left.Present():
		d.Verdict = Waiting
		d.Ahead = ir.Left
	case right.Present():
		d.Verdict = Waiting
		d.Ahead = ir.Right
	default:
		d.Verdict = Idle
	}
	return d
}
