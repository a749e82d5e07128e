package harness

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Assertion failures are reported through t as well, so a scenario that
// matches its golden file but breaks an assertion still fails.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	for _, e := range result.Errors {
		t.Error(e)
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares a result's trace against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Snapshot(name, result)))
}

// Snapshot renders the golden form of a result: a header naming the
// scenario, then the trace.
func Snapshot(name string, result *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# scenario: %s\n", name)
	b.WriteString(result.TraceText())
	return b.String()
}
