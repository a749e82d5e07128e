package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
)

// Pretty prints colored banners and change trees.
//
// Waiting lines are rewritten in place with a carriage return; the next
// regular line first terminates the pending one.
type Pretty struct {
	out     io.Writer
	pal     palette
	pending bool
}

var _ engine.Observer = (*Pretty)(nil)

// NewPretty creates a Pretty projection.
func NewPretty(opts Options) *Pretty {
	return &Pretty{out: opts.Out, pal: newPalette(opts.NoColor)}
}

func (p *Pretty) line(format string, args ...any) {
	if p.pending {
		fmt.Fprintln(p.out)
		p.pending = false
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Pretty) Received(ir.State) {}

func (p *Pretty) Deferred(s ir.State) {
	p.line("%s", p.pal.dim.Sprintf("… %s %s held for the next round", s.Side, s.Key))
}

func (p *Pretty) Aligned(left, right ir.State, diff *differ.Result) {
	p.line("%s", p.pal.title.Sprintf("━━━ Aligned at %s ━━━ (left #%d ↔ right #%d)", left.Key, left.Seq, right.Seq))
	p.diff(diff, "  ")
}

func (p *Pretty) OutOfSync(left, right ir.Key) {
	p.line("%s left=%s right=%s", p.pal.bad.Sprint("✗ out of sync:"), left, right)
}

func (p *Pretty) Waiting(ahead ir.Side, key ir.Key) {
	if p.pending {
		fmt.Fprint(p.out, "\r\x1b[K")
	}
	fmt.Fprintf(p.out, "\r%s", p.pal.warn.Sprintf("⏳ waiting: %s is ahead at %s", ahead, key))
	p.pending = true
}

func (p *Pretty) Compared(left, right ir.State, diff *differ.Result) {
	p.line("%s", p.pal.title.Sprintf("━━━ left #%d ↔ right #%d ━━━", left.Seq, right.Seq))
	p.diff(diff, "  ")
}

func (p *Pretty) SideComplete(side ir.Side, round int) {
	p.line("%s", p.pal.dim.Sprintf("● %s reached the round end (round %d)", side, round))
}

func (p *Pretty) RoundComplete(_ context.Context, r *engine.RoundReport) {
	p.line("%s", p.pal.title.Sprintf("═══ Round %d complete ═══", r.Round))
	p.line("  %s  %s  %s",
		p.pal.ok.Sprintf("matched %d", r.Stats.Matched),
		p.pal.warn.Sprintf("missing right %d", r.Stats.MissingRight),
		p.pal.warn.Sprintf("missing left %d", r.Stats.MissingLeft),
	)
	for _, e := range r.Entries {
		switch e.Kind {
		case align.Match:
			if e.Diff != nil && !e.Diff.Identical {
				p.line("  %s %s", p.pal.mod.Sprint("≠"), e.Key)
				p.diff(e.Diff, "    ")
			}
		case align.MissingRight:
			p.line("  %s %s (left #%d)", p.pal.bad.Sprint("MISSING →"), e.Key, e.Left.Index)
		case align.MissingLeft:
			p.line("  %s %s (right #%d)", p.pal.bad.Sprint("← MISSING"), e.Key, e.Right.Index)
		}
	}
	if r.ReportPath != "" {
		p.line("  report: %s", r.ReportPath)
	}
}

func (p *Pretty) Finished(s engine.Summary) {
	p.line("%s", p.pal.title.Sprintf("Finished (%s): %d rounds, %d left / %d right events",
		s.Reason, s.Rounds, s.LeftEvents, s.RightEvents))
	if s.ReportPath != "" {
		p.line("report: %s", s.ReportPath)
	}
}

// diff prints a result: a change tree for structural results, prefix
// colored lines otherwise.
func (p *Pretty) diff(d *differ.Result, indent string) {
	if d == nil {
		return
	}
	if d.Identical {
		p.line("%s%s", indent, p.pal.ok.Sprint("✓ identical"))
		return
	}
	p.line("%s%s", indent, p.pal.dim.Sprint(d.Header()))
	if len(d.Changes) > 0 {
		for _, c := range d.Changes {
			p.line("%s%s%s", indent, strings.Repeat("  ", c.Depth), p.change(c))
		}
		return
	}
	for _, l := range strings.Split(strings.TrimRight(d.Body, "\n"), "\n") {
		p.line("%s%s", indent, p.bodyLine(d.Engine, l))
	}
}

func (p *Pretty) change(c differ.Change) string {
	switch c.Kind {
	case differ.Modified:
		return p.pal.mod.Sprint(c.String())
	case differ.Removed:
		return p.pal.del.Sprint(c.String())
	case differ.Added:
		return p.pal.add.Sprint(c.String())
	case differ.ArrayChanged:
		return p.pal.warn.Sprint(c.String())
	default:
		return c.String()
	}
}

func (p *Pretty) bodyLine(e differ.Engine, l string) string {
	if e != differ.Unified {
		return l
	}
	switch {
	case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"):
		return p.pal.dim.Sprint(l)
	case strings.HasPrefix(l, "+"):
		return p.pal.add.Sprint(l)
	case strings.HasPrefix(l, "-"):
		return p.pal.del.Sprint(l)
	case strings.HasPrefix(l, "@@"):
		return p.pal.title.Sprint(l)
	}
	return l
}
