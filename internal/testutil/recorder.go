package testutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
)

// Recorder is an engine.Observer that records every notification.
//
// Lines is a plain-text trace, one notification per line, suitable for
// golden files. The typed fields keep the raw values for assertions.
//
// Recorder is not safe for concurrent use; read it after Run returns.
type Recorder struct {
	Lines []string

	AlignedCount   int
	OutOfSyncCount int
	WaitingCount   int
	ComparedCount  int
	FinishedCount  int

	Diffs    []*differ.Result
	Rounds   []*engine.RoundReport
	Held     []ir.State
	Complete []SideRound
	Summary  engine.Summary
}

// SideRound records a SideComplete notification.
type SideRound struct {
	Side  ir.Side
	Round int
}

var _ engine.Observer = (*Recorder)(nil)

// Trace returns Lines joined with newlines, with a trailing newline.
func (r *Recorder) Trace() string {
	if len(r.Lines) == 0 {
		return ""
	}
	return strings.Join(r.Lines, "\n") + "\n"
}

func (r *Recorder) logf(format string, args ...any) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

func (r *Recorder) Received(s ir.State) {
	r.logf("received %s seq=%d idx=%d key=%s", s.Side, s.Seq, s.Index, s.Key)
}

func (r *Recorder) Deferred(s ir.State) {
	r.Held = append(r.Held, s)
	r.logf("deferred %s seq=%d key=%s", s.Side, s.Seq, s.Key)
}

func (r *Recorder) Aligned(left, right ir.State, diff *differ.Result) {
	r.AlignedCount++
	r.Diffs = append(r.Diffs, diff)
	r.logf("aligned key=%s left=%d right=%d %s", left.Key, left.Seq, right.Seq, describe(diff))
}

func (r *Recorder) OutOfSync(left, right ir.Key) {
	r.OutOfSyncCount++
	r.logf("out-of-sync left=%s right=%s", left, right)
}

func (r *Recorder) Waiting(ahead ir.Side, key ir.Key) {
	r.WaitingCount++
	r.logf("waiting ahead=%s key=%s", ahead, key)
}

func (r *Recorder) Compared(left, right ir.State, diff *differ.Result) {
	r.ComparedCount++
	r.Diffs = append(r.Diffs, diff)
	r.logf("compared left=%d right=%d %s", left.Seq, right.Seq, describe(diff))
}

func (r *Recorder) SideComplete(side ir.Side, round int) {
	r.Complete = append(r.Complete, SideRound{Side: side, Round: round})
	r.logf("side-complete %s round=%d", side, round)
}

func (r *Recorder) RoundComplete(_ context.Context, rep *engine.RoundReport) {
	r.Rounds = append(r.Rounds, rep)
	r.logf("round %d left=%d right=%d matched=%d missing-right=%d missing-left=%d",
		rep.Round, len(rep.Left), len(rep.Right),
		rep.Stats.Matched, rep.Stats.MissingRight, rep.Stats.MissingLeft)
	for _, e := range rep.Entries {
		switch e.Kind {
		case align.Match:
			r.logf("  match key=%s left=%d right=%d %s", e.Key, e.Left.Seq, e.Right.Seq, describe(e.Diff))
		case align.MissingRight:
			r.logf("  missing-right key=%s left=%d", e.Key, e.Left.Seq)
		case align.MissingLeft:
			r.logf("  missing-left key=%s right=%d", e.Key, e.Right.Seq)
		}
	}
	if rep.ReportPath != "" {
		r.logf("  report written")
	}
}

func (r *Recorder) Finished(s engine.Summary) {
	r.FinishedCount++
	r.Summary = s
	r.logf("finished reason=%s rounds=%d left=%d right=%d", s.Reason, s.Rounds, s.LeftEvents, s.RightEvents)
}

// Messages returns the recorded lines that start with prefix.
func (r *Recorder) Messages(prefix string) []string {
	var out []string
	for _, l := range r.Lines {
		if strings.HasPrefix(l, prefix) {
			out = append(out, l)
		}
	}
	return out
}

func describe(d *differ.Result) string {
	switch {
	case d == nil:
		return "no-diff"
	case d.Identical:
		return "identical"
	default:
		return fmt.Sprintf("ops=%d", d.Ops)
	}
}
