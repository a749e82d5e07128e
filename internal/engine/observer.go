package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/ir"
)

// Observer receives engine notifications. All methods are called from the
// loop goroutine, in order, and must not retain the slices they are given
// beyond the call unless they copy them.
//
// Observers render; they never influence control flow. The one exception
// is RoundComplete, which may block (for example to keep a visual
// comparison on screen) and must return promptly once ctx is done.
type Observer interface {
	// Received is called after a state is pushed into its side's buffer.
	Received(s ir.State)

	// Deferred is called when a late event is held for the next round.
	Deferred(s ir.State)

	// Aligned is called in continuous mode when both latest keys match.
	Aligned(left, right ir.State, diff *differ.Result)

	// OutOfSync is called in continuous mode when both latest keys are
	// present and differ.
	OutOfSync(left, right ir.Key)

	// Waiting is called in continuous mode when only one side is keyed.
	Waiting(ahead ir.Side, key ir.Key)

	// Compared is called in raw mode whenever both sides have a latest
	// payload.
	Compared(left, right ir.State, diff *differ.Result)

	// SideComplete is called when a side first sees the round-end signal
	// in the current round.
	SideComplete(side ir.Side, round int)

	// RoundComplete is called once per completed round, before the
	// buffers are cleared.
	RoundComplete(ctx context.Context, r *RoundReport)

	// Finished is called exactly once when Run returns.
	Finished(s Summary)
}

// RoundEntry is a cross-comparison entry with its diff. Diff is set for
// Match entries only.
type RoundEntry struct {
	align.Entry
	Diff *differ.Result
}

// RoundReport describes one completed round.
type RoundReport struct {
	Session     string
	Round       int
	MaxRounds   int // 0 when unlimited
	CompletedAt time.Time

	// Left and Right are the buffered states of the round, oldest first.
	Left  []ir.State
	Right []ir.State

	// Entries follow the cross-comparison contract order.
	Entries []RoundEntry
	Stats   align.Stats

	// ReportPath is the per-round artifact, empty when none was written.
	ReportPath string
}

// StopReason says why Run returned.
type StopReason int

const (
	// EndOfStream means a source channel closed.
	EndOfStream StopReason = iota + 1
	// RoundLimit means the configured number of rounds completed.
	RoundLimit
	// Cancelled means the context was cancelled.
	Cancelled
)

// LogValue implements slog.LogValuer.
func (r StopReason) LogValue() slog.Value {
	return slog.StringValue(r.String())
}

func (r StopReason) String() string {
	switch r {
	case EndOfStream:
		return "end-of-stream"
	case RoundLimit:
		return "round-limit"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Summary describes a finished run.
type Summary struct {
	Session string
	Reason  StopReason
	Rounds  int

	// LeftEvents and RightEvents count accepted events per side.
	LeftEvents  int64
	RightEvents int64

	// Totals accumulates cross-comparison stats over all rounds.
	Totals align.Stats

	// ReportPath is the session artifact, empty when none was written.
	ReportPath string
}

// NopObserver implements Observer with no-ops. Embed it to implement only
// the notifications you need.
type NopObserver struct{}

func (NopObserver) Received(ir.State) {}
func (NopObserver) Deferred(ir.State) {}
func (NopObserver) Aligned(ir.State, ir.State, *differ.Result) {}
func (NopObserver) OutOfSync(ir.Key, ir.Key) {}
func (NopObserver) Waiting(ir.Side, ir.Key) {}
func (NopObserver) Compared(ir.State, ir.State, *differ.Result) {}
func (NopObserver) SideComplete(ir.Side, int) {}
func (NopObserver) RoundComplete(context.Context, *RoundReport) {}
func (NopObserver) Finished(Summary) {}

// Multi fans notifications out to several observers in order.
type Multi []Observer

func (m Multi) Received(s ir.State) {
	for _, o := range m {
		o.Received(s)
	}
}

func (m Multi) Deferred(s ir.State) {
	for _, o := range m {
		o.Deferred(s)
	}
}

func (m Multi) Aligned(l, r ir.State, d *differ.Result) {
	for _, o := range m {
		o.Aligned(l, r, d)
	}
}

func (m Multi) OutOfSync(l, r ir.Key) {
	for _, o := range m {
		o.OutOfSync(l, r)
	}
}

func (m Multi) Waiting(ahead ir.Side, key ir.Key) {
	for _, o := range m {
		o.Waiting(ahead, key)
	}
}

func (m Multi) Compared(l, r ir.State, d *differ.Result) {
	for _, o := range m {
		o.Compared(l, r, d)
	}
}

func (m Multi) SideComplete(side ir.Side, round int) {
	for _, o := range m {
		o.SideComplete(side, round)
	}
}

func (m Multi) RoundComplete(ctx context.Context, r *RoundReport) {
	for _, o := range m {
		o.RoundComplete(ctx, r)
	}
}

func (m Multi) Finished(s Summary) {
	for _, o := range m {
		o.Finished(s)
	}
}
