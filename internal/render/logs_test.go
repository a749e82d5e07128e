package render

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
)

func jsonRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func newJSONLogs(buf *bytes.Buffer) *Logs {
	return NewLogs(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func TestLogs_Aligned(t *testing.T) {
	var buf bytes.Buffer
	o := newJSONLogs(&buf)

	l := state(ir.Left, 1, 0, "X", `{"phase":"X","n":1}`)
	r := state(ir.Right, 2, 0, "X", `{"phase":"X","n":2}`)
	o.Aligned(l, r, structuralDiff(t, `{"phase":"X","n":1}`, `{"phase":"X","n":2}`))

	recs := jsonRecords(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "aligned", recs[0]["msg"])
	assert.Equal(t, "X", recs[0]["key"])
	assert.Equal(t, false, recs[0]["identical"])
	assert.Equal(t, "structural", recs[0]["engine"])
	assert.Equal(t, "n: 1 → 2", recs[0]["diff"])
}

func TestLogs_ReceivedIsDebugWithReadableValues(t *testing.T) {
	var buf bytes.Buffer
	o := newJSONLogs(&buf)

	o.Received(state(ir.Right, 7, 2, "", `{}`))

	recs := jsonRecords(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "DEBUG", recs[0]["level"])
	assert.Equal(t, "right", recs[0]["side"])
	assert.Equal(t, ir.NoKeyLabel, recs[0]["key"])
	assert.Equal(t, "2 B", recs[0]["size"])
}

func TestLogs_RoundComplete(t *testing.T) {
	var buf bytes.Buffer
	o := newJSONLogs(&buf)

	rep := sampleRound(t)
	rep.ReportPath = "out_r3.html"
	o.RoundComplete(context.Background(), rep)

	recs := jsonRecords(t, &buf)
	require.Len(t, recs, 5)
	assert.Equal(t, "round complete", recs[0]["msg"])
	assert.Equal(t, "3", recs[0]["round"])
	assert.Equal(t, float64(2), recs[0]["matched"])
	assert.Equal(t, "out_r3.html", recs[0]["report"])
	assert.Equal(t, "round match", recs[1]["msg"])
	assert.Equal(t, true, recs[1]["identical"])
	assert.Equal(t, "missing on right", recs[3]["msg"])
	assert.Equal(t, "WARN", recs[3]["level"])
	assert.Equal(t, "Z", recs[3]["key"])
	assert.Equal(t, "missing on left", recs[4]["msg"])
}

func TestLogs_RoundCompleteShowsLimit(t *testing.T) {
	var buf bytes.Buffer
	o := newJSONLogs(&buf)

	rep := sampleRound(t)
	rep.MaxRounds = 5
	o.RoundComplete(context.Background(), rep)

	recs := jsonRecords(t, &buf)
	require.NotEmpty(t, recs)
	assert.Equal(t, "3/5", recs[0]["round"])
}

func TestLogs_Finished(t *testing.T) {
	var buf bytes.Buffer
	o := newJSONLogs(&buf)

	o.Finished(engine.Summary{Reason: engine.RoundLimit, Rounds: 2, LeftEvents: 1200, RightEvents: 3})

	recs := jsonRecords(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "round-limit", recs[0]["reason"])
	assert.Equal(t, "1,200", recs[0]["left_events"])
	assert.NotContains(t, recs[0], "report")
}

func TestLogs_OutOfSyncIsWarn(t *testing.T) {
	var buf bytes.Buffer
	o := newJSONLogs(&buf)

	o.OutOfSync(ir.KeyOf("A"), ir.KeyOf("B"))

	recs := jsonRecords(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "WARN", recs[0]["level"])
	assert.Equal(t, "A", recs[0]["left"])
	assert.Equal(t, "B", recs[0]["right"])
}
