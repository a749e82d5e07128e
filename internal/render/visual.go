package render

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
)

// HistoryRows is how many keys per side the Visual timeline shows.
const HistoryRows = 15

const (
	clearScreen = "\x1b[H\x1b[2J"
	clockLayout = "15:04:05.000"
)

type visualRow struct {
	index int
	key   ir.Key
	clock string
}

// Visual draws a full-screen two-column timeline and, after each round,
// a comparison table.
type Visual struct {
	out   io.Writer
	pal   palette
	width int
	pause time.Duration

	history  [2][]visualRow
	latest   [2]ir.Key
	counts   [2]int64
	complete [2]bool
	round    int
	status   string
}

var _ engine.Observer = (*Visual)(nil)

// NewVisual creates a Visual projection.
func NewVisual(opts Options) *Visual {
	w := opts.Width
	if w <= 0 {
		w = DefaultWidth
	}
	return &Visual{
		out:   opts.Out,
		pal:   newPalette(opts.NoColor),
		width: w,
		pause: opts.RoundPause,
		round: 1,
	}
}

func (v *Visual) Received(s ir.State) {
	h := append(v.history[s.Side], visualRow{index: s.Index, key: s.Key, clock: s.Event.ReceivedAt.Format(clockLayout)})
	if len(h) > HistoryRows {
		h = h[len(h)-HistoryRows:]
	}
	v.history[s.Side] = h
	v.latest[s.Side] = s.Key
	v.counts[s.Side]++
	v.draw()
}

func (v *Visual) Deferred(s ir.State) {
	v.status = v.pal.dim.Sprintf("%s %s held for the next round", s.Side, s.Key)
	v.draw()
}

func (v *Visual) Aligned(left, _ ir.State, diff *differ.Result) {
	if diff != nil && !diff.Identical {
		v.status = v.pal.mod.Sprintf("aligned at %s, %d differences", left.Key, diff.Ops)
	} else {
		v.status = v.pal.ok.Sprintf("aligned at %s, identical", left.Key)
	}
	v.draw()
}

func (v *Visual) OutOfSync(left, right ir.Key) {
	v.status = v.pal.bad.Sprintf("out of sync: left=%s right=%s", left, right)
	v.draw()
}

func (v *Visual) Waiting(ahead ir.Side, key ir.Key) {
	v.status = v.pal.warn.Sprintf("waiting: %s is ahead at %s", ahead, key)
	v.draw()
}

func (v *Visual) Compared(_, _ ir.State, diff *differ.Result) {
	if diff != nil && !diff.Identical {
		v.status = v.pal.mod.Sprintf("latest payloads differ (%d)", diff.Ops)
	} else {
		v.status = v.pal.ok.Sprint("latest payloads identical")
	}
	v.draw()
}

func (v *Visual) SideComplete(side ir.Side, round int) {
	v.complete[side] = true
	v.status = v.pal.dim.Sprintf("%s reached the round end (round %d)", side, round)
	v.draw()
}

// RoundComplete shows the comparison table and waits for the configured
// pause, or until ctx is done.
func (v *Visual) RoundComplete(ctx context.Context, r *engine.RoundReport) {
	fmt.Fprint(v.out, clearScreen+v.comparison(r))

	v.history = [2][]visualRow{}
	v.latest = [2]ir.Key{}
	v.complete = [2]bool{}
	v.round = r.Round + 1
	v.status = ""

	if v.pause <= 0 {
		return
	}
	t := time.NewTimer(v.pause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (v *Visual) Finished(s engine.Summary) {
	fmt.Fprintln(v.out)
	fmt.Fprintln(v.out, v.pal.title.Sprintf("Finished (%s): %d rounds, %s left / %s right events",
		s.Reason, s.Rounds, humanize.Comma(s.LeftEvents), humanize.Comma(s.RightEvents)))
	if s.ReportPath != "" {
		fmt.Fprintf(v.out, "report: %s\n", s.ReportPath)
	}
}

func (v *Visual) colWidth() int {
	return (v.width - 3) / 2
}

func (v *Visual) draw() {
	fmt.Fprint(v.out, clearScreen+v.screen())
}

// screen renders the live timeline.
func (v *Visual) screen() string {
	var b strings.Builder
	col := v.colWidth()
	rule := strings.Repeat("─", v.width)

	b.WriteString(v.pal.title.Sprint(fit("State Tracker", 16)))
	fmt.Fprintf(&b, "round %d  %s  %s\n", v.round, v.flag(ir.Left), v.flag(ir.Right))
	b.WriteString(rule + "\n")
	b.WriteString(v.pal.left.Sprint(fit(fmt.Sprintf("LEFT (%d events)", v.counts[ir.Left]), col)))
	b.WriteString(" │ ")
	b.WriteString(v.pal.right.Sprint(fit(fmt.Sprintf("RIGHT (%d events)", v.counts[ir.Right]), col)))
	b.WriteString("\n")

	for i := 0; i < HistoryRows; i++ {
		b.WriteString(v.cell(ir.Left, i, col))
		b.WriteString(" │ ")
		b.WriteString(strings.TrimRight(v.cell(ir.Right, i, col), " "))
		b.WriteString("\n")
	}

	b.WriteString(rule + "\n")
	b.WriteString(v.status + "\n")
	return b.String()
}

func (v *Visual) flag(side ir.Side) string {
	if v.complete[side] {
		return v.pal.ok.Sprintf("[%s ✓]", side)
	}
	return v.pal.dim.Sprintf("[%s …]", side)
}

// cell renders row i of a side. Keys equal to the other side's latest key
// are highlighted.
func (v *Visual) cell(side ir.Side, i, col int) string {
	h := v.history[side]
	if i >= len(h) {
		return fit("", col)
	}
	row := h[i]
	text := fit(fmt.Sprintf("#%-3d %s  %s", row.index, row.clock, row.key), col)
	if row.key.Matches(v.latest[side.Other()]) {
		return v.pal.ok.Sprint(text)
	}
	if !row.key.Present() {
		return v.pal.dim.Sprint(text)
	}
	return text
}

// comparison renders the round-comparison table.
func (v *Visual) comparison(r *engine.RoundReport) string {
	var b strings.Builder
	const statusCol = 12
	side := (v.width - statusCol - 2) / 2
	rule := strings.Repeat("─", v.width)

	b.WriteString(v.pal.title.Sprintf("Round %d comparison", r.Round) + "\n")
	b.WriteString(rule + "\n")
	b.WriteString(fit("LEFT", side) + " " + fit("STATUS", statusCol) + " " + "RIGHT\n")

	for _, e := range r.Entries {
		var left, right, status string
		switch e.Kind {
		case align.Match:
			left = fmt.Sprintf("#%d %s", e.Left.Index, e.Key)
			right = fmt.Sprintf("#%d %s", e.Right.Index, e.Key)
			if e.Diff == nil || e.Diff.Identical {
				status = v.pal.ok.Sprint(fit("✓", statusCol))
			} else {
				status = v.pal.bad.Sprint(fit("✗ MISMATCH", statusCol))
			}
		case align.MissingRight:
			left = fmt.Sprintf("#%d %s", e.Left.Index, e.Key)
			status = v.pal.warn.Sprint(fit("MISSING →", statusCol))
		case align.MissingLeft:
			right = fmt.Sprintf("#%d %s", e.Right.Index, e.Key)
			status = v.pal.warn.Sprint(fit("← MISSING", statusCol))
		}
		b.WriteString(strings.TrimRight(fit(left, side)+" "+status+" "+right, " ") + "\n")
	}

	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "matched %d  missing right %d  missing left %d\n",
		r.Stats.Matched, r.Stats.MissingRight, r.Stats.MissingLeft)
	if r.ReportPath != "" {
		fmt.Fprintf(&b, "report: %s\n", r.ReportPath)
	}
	return b.String()
}
