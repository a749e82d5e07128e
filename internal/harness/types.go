package harness

import (
	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/engine"
)

// RoundStats is the outcome of one closed round.
type RoundStats struct {
	Round int         `json:"round"`
	Stats align.Stats `json:"stats"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace is the recorded notification trace, one line per notification.
	Trace []string `json:"trace"`

	// Rounds lists every closed round in order.
	Rounds []RoundStats `json:"rounds"`

	// Summary is the engine's final summary.
	Summary engine.Summary `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []string{},
		Rounds: []RoundStats{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Round returns the stats of round n.
func (r *Result) Round(n int) (RoundStats, bool) {
	for _, rs := range r.Rounds {
		if rs.Round == n {
			return rs, true
		}
	}
	return RoundStats{}, false
}
