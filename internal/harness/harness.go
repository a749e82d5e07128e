package harness

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/testutil"
)

// RunTimeout bounds a single scenario run.
const RunTimeout = 10 * time.Second

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Build the differ and engine from the scenario config
//  2. Feed the script through a lockstep driver
//  3. Record every observer notification
//  4. Evaluate assertions against the recorded trace
//
// The returned error covers setup and engine failures; assertion failures
// are reported in Result.Errors.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	steps, err := scenario.Steps()
	if err != nil {
		return nil, err
	}
	d, err := newDiffer(scenario.Config)
	if err != nil {
		return nil, err
	}

	driver := testutil.NewDriver(steps)
	rec := &testutil.Recorder{}
	opts := []engine.EngineOption{
		engine.WithObserver(engine.Multi{driver, rec}),
		engine.WithSessionIDs(testutil.FixedSession(scenario.Name)),
		engine.WithNow(testutil.NewStepClock(testutil.Epoch, time.Second).Now),
		engine.WithLogger(slog.New(slog.DiscardHandler)),
	}

	eng, err := newEngine(driver, d, scenario.Config, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, RunTimeout)
	defer cancel()
	sum, err := eng.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("engine run: %w", err)
	}
	if sum.Reason == engine.Cancelled {
		return nil, fmt.Errorf("scenario %s did not finish within %s", scenario.Name, RunTimeout)
	}

	result := NewResult()
	result.Trace = append(result.Trace, rec.Lines...)
	result.Summary = sum
	for _, rep := range rec.Rounds {
		result.Rounds = append(result.Rounds, RoundStats{Round: rep.Round, Stats: rep.Stats})
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func newDiffer(cfg ScenarioConfig) (differ.Differ, error) {
	name, err := differ.ParseEngine(cfg.differEngine())
	if err != nil {
		return nil, err
	}
	return differ.New(name)
}

func newEngine(driver *testutil.Driver, d differ.Differ, cfg ScenarioConfig, opts []engine.EngineOption) (*engine.Engine, error) {
	if cfg.AlignBy == "" {
		return engine.NewRaw(driver.Left(), driver.Right(), d, opts...)
	}
	ext, err := align.NewPath(cfg.AlignBy)
	if err != nil {
		return nil, err
	}
	ecfg, err := cfg.engineConfig()
	if err != nil {
		return nil, err
	}
	return engine.New(driver.Left(), driver.Right(), ext, d, ecfg, opts...)
}

// TraceText joins the trace with newlines, with a trailing newline.
func (r *Result) TraceText() string {
	if len(r.Trace) == 0 {
		return ""
	}
	return strings.Join(r.Trace, "\n") + "\n"
}
