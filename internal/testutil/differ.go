package testutil

import (
	"errors"
	"sync"

	"github.com/roach88/tracker/internal/differ"
)

// RecordingDiffer wraps a differ and records every call.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingDiffer struct {
	inner differ.Differ

	mu    sync.Mutex
	calls [][2]differ.Input
}

// NewRecordingDiffer wraps inner. A nil inner uses the json-patch differ.
func NewRecordingDiffer(inner differ.Differ) *RecordingDiffer {
	if inner == nil {
		inner = differ.PatchDiffer{}
	}
	return &RecordingDiffer{inner: inner}
}

// Diff records the inputs and delegates.
func (d *RecordingDiffer) Diff(left, right differ.Input) (*differ.Result, error) {
	d.mu.Lock()
	d.calls = append(d.calls, [2]differ.Input{left, right})
	d.mu.Unlock()
	return d.inner.Diff(left, right)
}

// Calls returns how many times Diff was called.
func (d *RecordingDiffer) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

// Inputs returns a copy of every recorded input pair.
func (d *RecordingDiffer) Inputs() [][2]differ.Input {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([][2]differ.Input, len(d.calls))
	copy(out, d.calls)
	return out
}

// ErrDiffFailed is returned by FailingDiffer.
var ErrDiffFailed = errors.New("diff failed")

// FailingDiffer always fails, returning a result with the given fallback
// body like a differ whose serialization broke.
type FailingDiffer struct {
	Fallback string
}

// Diff returns the fallback and ErrDiffFailed.
func (f FailingDiffer) Diff(left, right differ.Input) (*differ.Result, error) {
	return &differ.Result{Left: left.Label, Right: right.Label, Body: f.Fallback}, ErrDiffFailed
}
