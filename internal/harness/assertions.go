package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Trace    []string // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, line := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages in order. An empty slice means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertRoundStats:
		return assertRoundStats(result, a)
	case AssertSummary:
		return assertSummary(result, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

// lineMatches reports whether a trace line starts with prefix. Round entry
// indentation is ignored.
func lineMatches(line, prefix string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " "), prefix)
}

func assertTraceContains(trace []string, a Assertion) error {
	for _, line := range trace {
		if lineMatches(line, a.Line) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("a line starting with %q", a.Line),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the lines appear in the given order.
// They don't need to be consecutive, and each match must come after the
// previous one.
func assertTraceOrder(trace []string, a Assertion) error {
	pos := 0
	prev := -1
	for _, want := range a.Lines {
		found := -1
		for i := pos; i < len(trace); i++ {
			if lineMatches(trace[i], want) {
				found = i
				break
			}
		}
		if found < 0 {
			actual := fmt.Sprintf("missing line: %s", want)
			if prev >= 0 {
				actual = fmt.Sprintf("no %q after line %d", want, prev+1)
			}
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("lines in order: %q", a.Lines),
				Actual:   actual,
				Trace:    trace,
			}
		}
		prev = found
		pos = found + 1
	}
	return nil
}

func assertTraceCount(trace []string, a Assertion) error {
	count := 0
	for _, line := range trace {
		if lineMatches(line, a.Line) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d lines starting with %q", a.Count, a.Line),
			Actual:   fmt.Sprintf("%d lines", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertRoundStats(result *Result, a Assertion) error {
	rs, ok := result.Round(a.Round)
	if !ok {
		return &AssertionError{
			Type:     AssertRoundStats,
			Expected: fmt.Sprintf("round %d to close", a.Round),
			Actual:   fmt.Sprintf("%d rounds closed", len(result.Rounds)),
			Trace:    result.Trace,
		}
	}
	got := rs.Stats
	if got.Matched != a.Matched || got.MissingRight != a.MissingRight || got.MissingLeft != a.MissingLeft {
		return &AssertionError{
			Type: AssertRoundStats,
			Expected: fmt.Sprintf("round %d matched=%d missing-right=%d missing-left=%d",
				a.Round, a.Matched, a.MissingRight, a.MissingLeft),
			Actual: fmt.Sprintf("matched=%d missing-right=%d missing-left=%d",
				got.Matched, got.MissingRight, got.MissingLeft),
		}
	}
	return nil
}

func assertSummary(result *Result, a Assertion) error {
	sum := result.Summary
	if sum.Reason.String() != a.Reason || sum.Rounds != a.Rounds {
		return &AssertionError{
			Type:     AssertSummary,
			Expected: fmt.Sprintf("stopped with %s after %d rounds", a.Reason, a.Rounds),
			Actual:   fmt.Sprintf("stopped with %s after %d rounds", sum.Reason, sum.Rounds),
		}
	}
	return nil
}
