package differ

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/roach88/tracker/internal/ir"
)

// UnifiedDiffer renders a unified line diff of both documents in canonical
// indented form, so member order never shows up as a change.
type UnifiedDiffer struct {
	// Context is the number of unchanged lines around each hunk.
	Context int
}

// Diff implements Differ. The fallback body is empty.
func (u UnifiedDiffer) Diff(left, right Input) (*Result, error) {
	res, done, err := compareOrFallback(Unified, "", left, right)
	if done {
		return res, err
	}

	a, err := ir.CanonicalIndent(left.Doc)
	if err != nil {
		return res, fmt.Errorf("unified diff: %w", err)
	}
	b, err := ir.CanonicalIndent(right.Doc)
	if err != nil {
		return res, fmt.Errorf("unified diff: %w", err)
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(a + "\n"),
		B:        difflib.SplitLines(b + "\n"),
		FromFile: left.Label,
		ToFile:   right.Label,
		Context:  u.Context,
	})
	if err != nil {
		return res, fmt.Errorf("unified diff: %w", err)
	}

	res.Body = strings.TrimSuffix(text, "\n")
	res.Ops = countChangedLines(res.Body)
	return res, nil
}

func countChangedLines(body string) int {
	n := 0
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---") {
			continue
		}
		if strings.HasPrefix(line, "+") || strings.HasPrefix(line, "-") {
			n++
		}
	}
	return n
}
