package render

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
)

// Logs renders notifications as slog records.
//
// Per-event detail is Debug, alignment and rounds are Info, divergence is
// Warn.
type Logs struct {
	log *slog.Logger
}

var _ engine.Observer = (*Logs)(nil)

// NewLogs creates a Logs projection.
func NewLogs(l *slog.Logger) *Logs {
	return &Logs{log: l}
}

func (o *Logs) Received(s ir.State) {
	o.log.Debug("state received",
		"side", s.Side,
		"seq", s.Seq,
		"index", s.Index,
		"key", s.Key,
		"size", humanize.Bytes(uint64(len(s.Event.Payload))),
	)
}

func (o *Logs) Deferred(s ir.State) {
	o.log.Info("late event deferred to next round", "side", s.Side, "seq", s.Seq, "key", s.Key)
}

func (o *Logs) Aligned(left, right ir.State, diff *differ.Result) {
	o.log.Info("aligned", append([]any{
		"key", left.Key,
		"left_seq", left.Seq,
		"right_seq", right.Seq,
	}, diffAttrs(diff)...)...)
}

func (o *Logs) OutOfSync(left, right ir.Key) {
	o.log.Warn("out of sync", "left", left, "right", right)
}

func (o *Logs) Waiting(ahead ir.Side, key ir.Key) {
	o.log.Debug("waiting", "ahead", ahead, "key", key)
}

func (o *Logs) Compared(left, right ir.State, diff *differ.Result) {
	o.log.Info("compared", append([]any{
		"left_seq", left.Seq,
		"right_seq", right.Seq,
	}, diffAttrs(diff)...)...)
}

func (o *Logs) SideComplete(side ir.Side, round int) {
	o.log.Info("side reached round end", "side", side, "round", round)
}

func (o *Logs) RoundComplete(_ context.Context, r *engine.RoundReport) {
	attrs := []any{
		"round", roundLabel(r),
		"left_states", len(r.Left),
		"right_states", len(r.Right),
		"matched", r.Stats.Matched,
		"missing_right", r.Stats.MissingRight,
		"missing_left", r.Stats.MissingLeft,
	}
	if r.ReportPath != "" {
		attrs = append(attrs, "report", r.ReportPath)
	}
	o.log.Info("round complete", attrs...)

	for _, e := range r.Entries {
		switch e.Kind {
		case align.Match:
			o.log.Info("round match", append([]any{"round", r.Round, "key", e.Key}, diffAttrs(e.Diff)...)...)
		case align.MissingRight:
			o.log.Warn("missing on right", "round", r.Round, "key", e.Key, "left_index", e.Left.Index)
		case align.MissingLeft:
			o.log.Warn("missing on left", "round", r.Round, "key", e.Key, "right_index", e.Right.Index)
		}
	}
}

// roundLabel is "n" or "n/max" when a round limit is set.
func roundLabel(r *engine.RoundReport) string {
	if r.MaxRounds > 0 {
		return fmt.Sprintf("%d/%d", r.Round, r.MaxRounds)
	}
	return strconv.Itoa(r.Round)
}

func (o *Logs) Finished(s engine.Summary) {
	attrs := []any{
		"reason", s.Reason,
		"rounds", s.Rounds,
		"left_events", humanize.Comma(s.LeftEvents),
		"right_events", humanize.Comma(s.RightEvents),
		"matched", s.Totals.Matched,
		"mismatched", s.Totals.Mismatched(),
	}
	if s.ReportPath != "" {
		attrs = append(attrs, "report", s.ReportPath)
	}
	o.log.Info("tracking finished", attrs...)
}

func diffAttrs(d *differ.Result) []any {
	if d == nil {
		return nil
	}
	if d.Identical {
		return []any{"identical", true}
	}
	return []any{"identical", false, "engine", d.Engine, "ops", d.Ops, "diff", d.Body}
}
