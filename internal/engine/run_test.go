package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
	"github.com/roach88/tracker/internal/report"
	"github.com/roach88/tracker/internal/testutil"
)

const runTimeout = 10 * time.Second

// harness wires a scripted run.
type harness struct {
	driver   *testutil.Driver
	recorder *testutil.Recorder
	differ   *testutil.RecordingDiffer
	engine   *engine.Engine
}

func newHarness(t *testing.T, steps []testutil.Step, cfg engine.Config, opts ...testutil.DriverOption) *harness {
	t.Helper()
	h := &harness{
		driver:   testutil.NewDriver(steps, opts...),
		recorder: &testutil.Recorder{},
		differ:   testutil.NewRecordingDiffer(nil),
	}
	e, err := engine.New(h.driver.Left(), h.driver.Right(), align.MustPath("phase"), h.differ, cfg,
		engine.WithObserver(engine.Multi{h.driver, h.recorder}),
		engine.WithSessionIDs(testutil.FixedSession("sess")),
		engine.WithNow(testutil.NewStepClock(testutil.Epoch, time.Second).Now),
		engine.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)
	h.engine = e
	return h
}

func (h *harness) run(t *testing.T) engine.Summary {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	sum, err := h.engine.Run(ctx)
	require.NoError(t, err)
	return sum
}

func phase(p string) string {
	return `{"phase":"` + p + `"}`
}

func roundCfg() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.RoundEnd = ir.KeyOf("END")
	return cfg
}

func TestRun_ContinuousSameKeyDiffsOnce(t *testing.T) {
	h := newHarness(t, []testutil.Step{
		testutil.L(`{"phase":"A","v":1}`),
		testutil.R(`{"phase":"A","v":2}`),
	}, engine.DefaultConfig())

	sum := h.run(t)

	assert.Equal(t, engine.EndOfStream, sum.Reason)
	assert.Equal(t, 1, h.differ.Calls())
	assert.Equal(t, 1, h.recorder.AlignedCount)
	assert.Zero(t, h.recorder.OutOfSyncCount)
	assert.Equal(t, 1, h.recorder.WaitingCount)
	assert.False(t, h.recorder.Diffs[0].Identical)
	assert.Equal(t, int64(1), sum.LeftEvents)
	assert.Equal(t, int64(1), sum.RightEvents)
}

func TestRun_ContinuousDifferentKeysOutOfSync(t *testing.T) {
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("A")),
		testutil.R(phase("B")),
	}, engine.DefaultConfig())

	h.run(t)

	assert.Zero(t, h.differ.Calls())
	assert.Equal(t, 1, h.recorder.OutOfSyncCount)
	assert.Equal(t, []string{"out-of-sync left=A right=B"}, h.recorder.Messages("out-of-sync"))
}

func TestRun_ContinuousUnkeyedIsNoop(t *testing.T) {
	h := newHarness(t, []testutil.Step{
		testutil.L(`{"other":1}`),
		testutil.R(`{"other":2}`),
	}, engine.DefaultConfig())

	h.run(t)

	assert.Zero(t, h.recorder.AlignedCount)
	assert.Zero(t, h.recorder.OutOfSyncCount)
	assert.Zero(t, h.recorder.WaitingCount)
}

func TestRun_RoundBothSides(t *testing.T) {
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("X")),
		testutil.R(phase("X")),
		testutil.L(phase("END")),
		testutil.R(phase("END")),
		testutil.L(phase("Y")),
	}, roundCfg())

	sum := h.run(t)

	require.Len(t, h.recorder.Rounds, 1)
	rep := h.recorder.Rounds[0]
	assert.Equal(t, 1, rep.Round)
	assert.Equal(t, 1, sum.Rounds)
	assert.Equal(t, "sess", rep.Session)
	assert.Zero(t, rep.Stats.Mismatched())

	var xMatches int
	for _, e := range rep.Entries {
		if e.Kind == align.Match && e.Key == ir.KeyOf("X") {
			xMatches++
			require.NotNil(t, e.Diff)
			assert.True(t, e.Diff.Identical)
		}
	}
	assert.Equal(t, 1, xMatches)

	// The event after the boundary starts a fresh round at index 0.
	assert.Equal(t, "received left seq=5 idx=0 key=Y", h.recorder.Lines[len(h.recorder.Lines)-2])
	assert.Equal(t, 2, h.differ.Calls(), "one diff per match")
}

func TestRun_MissingOnRightReportedOnce(t *testing.T) {
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("X")),
		testutil.L(phase("END")),
		testutil.R(phase("END")),
	}, roundCfg())

	h.run(t)

	require.Len(t, h.recorder.Rounds, 1)
	var missing []align.Entry
	for _, e := range h.recorder.Rounds[0].Entries {
		if e.Kind != align.Match {
			missing = append(missing, e.Entry)
		}
	}
	require.Len(t, missing, 1)
	assert.Equal(t, align.MissingRight, missing[0].Kind)
	assert.Equal(t, ir.KeyOf("X"), missing[0].Key)
}

func TestRun_MaxRounds(t *testing.T) {
	var steps []testutil.Step
	for i := 0; i < 4; i++ {
		steps = append(steps, testutil.L(phase("X")), testutil.R(phase("END")), testutil.L(phase("END")))
	}
	cfg := roundCfg()
	cfg.MaxRounds = 2
	h := newHarness(t, steps, cfg)

	sum := h.run(t)

	assert.Equal(t, engine.RoundLimit, sum.Reason)
	assert.Equal(t, 2, sum.Rounds)
	require.Len(t, h.recorder.Rounds, 2)
	assert.Equal(t, 1, h.recorder.Rounds[0].Round)
	assert.Equal(t, 2, h.recorder.Rounds[1].Round)
	assert.Equal(t, 2, h.recorder.Rounds[1].MaxRounds)
	assert.Equal(t, 2, sum.Totals.MissingRight)
	assert.Equal(t, 1, h.recorder.FinishedCount)
}

func TestRun_CancelWithOneSideCompleteWritesNothing(t *testing.T) {
	dir := t.TempDir()
	cfg := roundCfg()
	cfg.ReportPath = filepath.Join(dir, "report.html")
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("X")),
		testutil.L(phase("END")),
		testutil.R(phase("X")),
	}, cfg, testutil.HoldOpen())

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	type result struct {
		sum engine.Summary
		err error
	}
	done := make(chan result, 1)
	go func() {
		sum, err := h.engine.Run(ctx)
		done <- result{sum, err}
	}()

	select {
	case <-h.driver.Consumed():
	case <-time.After(runTimeout):
		t.Fatal("script not consumed")
	}
	cancel()
	res := <-done

	require.NoError(t, res.err)
	assert.Equal(t, engine.Cancelled, res.sum.Reason)
	assert.Zero(t, res.sum.Rounds)
	assert.Empty(t, res.sum.ReportPath)
	assert.Empty(t, h.recorder.Rounds)
	assert.Equal(t, []testutil.SideRound{{Side: ir.Left, Round: 1}}, h.recorder.Complete)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no report on cancellation")
}

func TestRun_FoldPolicyKeepsLateEventsInRound(t *testing.T) {
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("END")),
		testutil.L(phase("X")),
		testutil.R(phase("END")),
	}, roundCfg())

	h.run(t)

	require.Len(t, h.recorder.Rounds, 1)
	rep := h.recorder.Rounds[0]
	assert.Len(t, rep.Left, 2)
	assert.Equal(t, 1, rep.Stats.MissingRight)
	assert.Empty(t, h.recorder.Held)
}

func TestRun_DeferPolicyCarriesLateEvents(t *testing.T) {
	cfg := roundCfg()
	cfg.LatePolicy = engine.LateDefer
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("END")),
		testutil.L(phase("X")), // late: held for round 2
		testutil.R(phase("END")),
		testutil.R(phase("X")),
		testutil.L(phase("END")),
		testutil.R(phase("END")),
	}, cfg)

	h.run(t)

	require.Len(t, h.recorder.Held, 1)
	assert.Equal(t, int64(2), h.recorder.Held[0].Seq)

	require.Len(t, h.recorder.Rounds, 2)
	first, second := h.recorder.Rounds[0], h.recorder.Rounds[1]
	assert.Len(t, first.Left, 1)
	assert.Zero(t, first.Stats.Mismatched())

	require.Len(t, second.Left, 2)
	assert.Equal(t, int64(2), second.Left[0].Seq)
	assert.Equal(t, 0, second.Left[0].Index)
	assert.Equal(t, 2, second.Stats.Matched)
	assert.Zero(t, second.Stats.Mismatched())
}

func TestRun_DeferredSignalClosesNextRound(t *testing.T) {
	cfg := roundCfg()
	cfg.LatePolicy = engine.LateDefer
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("END")),
		testutil.L(phase("END")), // late signal: completes left in round 2
		testutil.R(phase("END")),
		testutil.R(phase("END")),
	}, cfg)

	sum := h.run(t)

	assert.Equal(t, 2, sum.Rounds)
	assert.Equal(t, []testutil.SideRound{
		{Side: ir.Left, Round: 1},
		{Side: ir.Right, Round: 1},
		{Side: ir.Left, Round: 2},
		{Side: ir.Right, Round: 2},
	}, h.recorder.Complete)
}

func TestRun_DeferPolicyHoldsEventsAfterReplayedSignal(t *testing.T) {
	cfg := roundCfg()
	cfg.LatePolicy = engine.LateDefer
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("END")),
		testutil.L(phase("X")),
		testutil.L(phase("END")),
		testutil.L(phase("Y")), // after round 2's signal: belongs to round 3
		testutil.R(phase("END")),
		testutil.R(phase("END")),
		testutil.R(phase("Y")),
		testutil.L(phase("END")),
		testutil.R(phase("END")),
	}, cfg)

	sum := h.run(t)

	require.Equal(t, 3, sum.Rounds)
	require.Len(t, h.recorder.Rounds, 3)

	second := h.recorder.Rounds[1]
	require.Len(t, second.Left, 2)
	assert.Equal(t, ir.KeyOf("X"), second.Left[0].Key)
	assert.Equal(t, ir.KeyOf("END"), second.Left[1].Key)
	assert.Equal(t, 1, second.Stats.Matched)
	assert.Equal(t, 1, second.Stats.MissingRight)
	assert.Zero(t, second.Stats.MissingLeft)

	third := h.recorder.Rounds[2]
	require.Len(t, third.Left, 2)
	assert.Equal(t, int64(4), third.Left[0].Seq)
	assert.Equal(t, 0, third.Left[0].Index)
	assert.Equal(t, 2, third.Stats.Matched)
	assert.Zero(t, third.Stats.Mismatched())

	// Y is held once live and once more when round 2 replays it.
	assert.Len(t, h.recorder.Messages("deferred left seq=4"), 2)
}

func TestRun_SideCompleteOncePerRound(t *testing.T) {
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("END")),
		testutil.L(phase("END")),
		testutil.R(phase("END")),
	}, roundCfg())

	h.run(t)

	assert.Len(t, h.recorder.Complete, 2)
	require.Len(t, h.recorder.Rounds, 1)
	assert.Len(t, h.recorder.Rounds[0].Left, 2)
}

func TestRun_WritesRoundAndSessionReports(t *testing.T) {
	dir := t.TempDir()
	cfg := roundCfg()
	cfg.ReportPath = filepath.Join(dir, "report.json")
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("X")),
		testutil.R(phase("X")),
		testutil.L(phase("END")),
		testutil.R(phase("END")),
	}, cfg)

	sum := h.run(t)

	require.Len(t, h.recorder.Rounds, 1)
	rep := h.recorder.Rounds[0]
	want := report.RoundPath(cfg.ReportPath, rep.CompletedAt, 1)
	assert.Equal(t, want, rep.ReportPath)
	assert.FileExists(t, want)

	assert.Equal(t, cfg.ReportPath, sum.ReportPath)
	assert.FileExists(t, cfg.ReportPath)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRun_RoundLimitSkipsSessionReport(t *testing.T) {
	dir := t.TempDir()
	cfg := roundCfg()
	cfg.MaxRounds = 1
	cfg.ReportPath = filepath.Join(dir, "report.html")
	h := newHarness(t, []testutil.Step{
		testutil.L(phase("END")),
		testutil.R(phase("END")),
	}, cfg)

	sum := h.run(t)

	assert.Equal(t, engine.RoundLimit, sum.Reason)
	assert.Empty(t, sum.ReportPath)
	assert.NoFileExists(t, cfg.ReportPath)
	require.Len(t, h.recorder.Rounds, 1)
	assert.FileExists(t, h.recorder.Rounds[0].ReportPath)
}

func TestRun_DiffFailureIsNotFatal(t *testing.T) {
	d := testutil.NewDriver([]testutil.Step{
		testutil.L(phase("A")),
		testutil.R(phase("A")),
	})
	rec := &testutil.Recorder{}
	e, err := engine.New(d.Left(), d.Right(), align.MustPath("phase"), testutil.FailingDiffer{Fallback: "[]"},
		engine.DefaultConfig(),
		engine.WithObserver(engine.Multi{d, rec}),
		engine.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	sum, err := e.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, engine.EndOfStream, sum.Reason)
	require.Len(t, rec.Diffs, 1)
	assert.Equal(t, "[]", rec.Diffs[0].Body)
}

func TestRun_RawModeComparesLatest(t *testing.T) {
	d := testutil.NewDriver([]testutil.Step{
		testutil.L(`{"a":1}`),
		testutil.R(`{"a":1}`),
		testutil.L(`{"a":2}`),
	})
	rec := &testutil.Recorder{}
	diffs := testutil.NewRecordingDiffer(differ.StructuralDiffer{})
	e, err := engine.NewRaw(d.Left(), d.Right(), diffs,
		engine.WithObserver(engine.Multi{d, rec}),
		engine.WithLogger(slog.New(slog.DiscardHandler)),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	_, err = e.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, rec.ComparedCount)
	assert.Equal(t, []string{
		"compared left=1 right=2 identical",
		"compared left=3 right=2 ops=1",
	}, rec.Messages("compared"))
	inputs := diffs.Inputs()
	assert.Equal(t, "left", inputs[1][0].Label)
	assert.JSONEq(t, `{"a":2}`, string(inputs[1][0].Doc))
}

// failingSource fails immediately.
type failingSource struct{}

func (failingSource) Name() string { return "broken" }

func (failingSource) Stream(context.Context, chan<- ir.Event) error {
	return errors.New("no such file")
}

func TestRun_SourceErrorReturned(t *testing.T) {
	d := testutil.NewDriver(nil, testutil.HoldOpen())
	e, err := engine.New(failingSource{}, d.Right(), align.NewHeuristic(), differ.PatchDiffer{}, engine.DefaultConfig(),
		engine.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	sum, err := e.Run(ctx)

	assert.ErrorContains(t, err, "left source broken: no such file")
	assert.Equal(t, engine.EndOfStream, sum.Reason)
}
