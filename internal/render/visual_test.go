package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracker/internal/ir"
)

func newPlainVisual(pause time.Duration) (*Visual, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewVisual(Options{Out: &buf, NoColor: true, Width: 60, RoundPause: pause}), &buf
}

// lastScreen returns the most recently drawn frame.
func lastScreen(buf *bytes.Buffer) string {
	frames := strings.Split(buf.String(), clearScreen)
	return frames[len(frames)-1]
}

func TestVisual_Timeline(t *testing.T) {
	v, buf := newPlainVisual(0)

	v.Received(state(ir.Left, 1, 0, "X", `{}`))
	v.Received(state(ir.Right, 2, 0, "X", `{}`))
	v.SideComplete(ir.Left, 1)

	screen := lastScreen(buf)
	assert.Contains(t, screen, "round 1  [left ✓]  [right …]")
	assert.Contains(t, screen, "LEFT (1 events)")
	assert.Contains(t, screen, "RIGHT (1 events)")
	assert.Contains(t, screen, "#0   12:00:00.001  X")
	assert.Contains(t, screen, "#0   12:00:00.002  X")
	assert.Contains(t, screen, "left reached the round end (round 1)")
}

func TestVisual_HistoryIsBounded(t *testing.T) {
	v, buf := newPlainVisual(0)

	for i := 0; i < 20; i++ {
		v.Received(state(ir.Left, int64(i+1), i, fmt.Sprintf("K%d", i), `{}`))
	}

	screen := lastScreen(buf)
	assert.Contains(t, screen, "LEFT (20 events)")
	assert.Contains(t, screen, "#5   12:")
	assert.Contains(t, screen, "#19  12:")
	assert.NotContains(t, screen, "#4   12:")
	assert.Len(t, v.history[ir.Left], HistoryRows)
}

func TestVisual_RoundComparison(t *testing.T) {
	v, buf := newPlainVisual(0)
	v.Received(state(ir.Left, 1, 0, "X", `{}`))

	rep := sampleRound(t)
	rep.ReportPath = "out_r3.html"
	v.RoundComplete(context.Background(), rep)

	out := lastScreen(buf)
	assert.Contains(t, out, "Round 3 comparison")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "✗ MISMATCH")
	assert.Contains(t, out, "MISSING →")
	assert.Contains(t, out, "← MISSING")
	assert.Contains(t, out, "matched 2  missing right 1  missing left 1")
	assert.Contains(t, out, "report: out_r3.html")

	assert.Equal(t, 4, v.round)
	assert.Empty(t, v.history[ir.Left])
	assert.False(t, v.latest[ir.Left].Present())
}

func TestVisual_PauseStopsOnCancel(t *testing.T) {
	v, _ := newPlainVisual(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		v.RoundComplete(ctx, sampleRound(t))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "RoundComplete ignored the cancelled context")
	}
}
