// Package harness runs scripted conformance scenarios against the engine.
//
// A scenario scripts the exact interleaving of events on both sides,
// runs them through a real engine in lockstep (testutil.Driver) and
// records every observer notification (testutil.Recorder). The recorded
// trace is then checked by assertions and, in tests, against a golden
// file.
//
// # Scenario Format
//
//	name: round_cross_compare
//	description: "What this scenario validates"
//	config:
//	  align_by: phase        # omit for raw diff mode
//	  round_end: END         # omit for continuous mode
//	  max_rounds: 1
//	  late_events: defer
//	  capacity: 100
//	  engine: json-patch
//	events:
//	  - left: {phase: X, v: 1}
//	  - right: {phase: X, v: 2}
//	assertions:
//	  - type: trace_contains
//	    line: "aligned key=X"
//	  - type: round_stats
//	    round: 1
//	    matched: 1
//
// # Assertion Types
//
//   - trace_contains: some trace line starts with line
//   - trace_order: the given line prefixes appear in order
//   - trace_count: exactly count trace lines start with line
//   - round_stats: round N closed with the given stats
//   - summary: the run stopped for reason after rounds rounds
//
// Leading indentation of round entry lines is ignored when matching.
//
// # Deterministic Runs
//
// Every run uses a fixed session ID (the scenario name), a step clock for
// report timestamps and the driver's own event clock, so the trace of a
// scenario is identical across runs.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/round_limit.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
