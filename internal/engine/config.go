package engine

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/ir"
	"github.com/roach88/tracker/internal/report"
)

// Mode selects how progress is shown. Exactly one mode is active per run.
type Mode int

const (
	// ModeLogs emits structured log records.
	ModeLogs Mode = iota
	// ModePretty prints colored diffs for aligned states.
	ModePretty
	// ModeVisual draws a live two-column timeline.
	ModeVisual
)

// LogValue implements slog.LogValuer.
func (m Mode) LogValue() slog.Value {
	return slog.StringValue(m.String())
}

func (m Mode) String() string {
	switch m {
	case ModePretty:
		return "pretty"
	case ModeVisual:
		return "visual"
	default:
		return "logs"
	}
}

// LatePolicy decides what happens to an event that arrives on a side that
// has already seen the round-end signal while the other side has not.
type LatePolicy string

const (
	// LateFold pushes late events into the round being closed.
	LateFold LatePolicy = "fold"
	// LateDefer holds late events back and replays them as the first
	// states of the next round.
	LateDefer LatePolicy = "defer"
)

// ParseLatePolicy validates a policy name.
func ParseLatePolicy(s string) (LatePolicy, error) {
	switch p := LatePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case LateFold, LateDefer:
		return p, nil
	}
	return "", &ConfigError{
		Code:   ErrCodeUnknownValue,
		Field:  "late-events",
		Reason: fmt.Sprintf("unknown policy %q", s),
		Hint:   "use fold or defer",
	}
}

// DefaultRoundPause is how long the visual round comparison stays on
// screen.
const DefaultRoundPause = 2 * time.Second

// Config is the validated, immutable tracker configuration.
type Config struct {
	// RoundEnd is the round-end signal. Absent selects continuous mode.
	RoundEnd ir.Key

	// Mode is the output mode.
	Mode Mode

	// MaxRounds stops the run after that many rounds. 0 is unlimited.
	MaxRounds int

	// Capacity is the per-side history size.
	Capacity int

	// ReportPath, when set, receives a per-round artifact for every
	// completed round and a session artifact at end of stream.
	ReportPath string

	// RoundPause is the visual round-comparison pause. 0 disables it.
	RoundPause time.Duration

	// LatePolicy handles events on an already-complete side.
	LatePolicy LatePolicy
}

// DefaultConfig returns a continuous-mode configuration with defaults.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeLogs,
		Capacity:   align.DefaultCapacity,
		RoundPause: DefaultRoundPause,
		LatePolicy: LateFold,
	}
}

// RoundMode reports whether a round-end signal is configured.
func (c Config) RoundMode() bool {
	return c.RoundEnd.Present()
}

// Validate checks every setting and returns the first *ConfigError.
func (c Config) Validate() error {
	if v, ok := c.RoundEnd.Get(); ok && v == "" {
		return NewEmptyKeyError("round-end")
	}
	if c.ReportPath != "" && !c.RoundMode() {
		return NewDependencyError("report", "a round-end signal",
			"tracker track ws://a ws://b --align-by phase --round-end END --report out.html")
	}
	if c.ReportPath != "" {
		if err := report.CheckPath(c.ReportPath); err != nil {
			return &ConfigError{Code: ErrCodeUnknownValue, Field: "report", Reason: err.Error(),
				Hint: "use a .html, .json, .db or .sqlite path"}
		}
	}
	if c.MaxRounds < 0 {
		return NewRangeError("max-rounds", c.MaxRounds, "must be >= 1, or 0 for unlimited")
	}
	if c.MaxRounds > 0 && !c.RoundMode() {
		return NewDependencyError("max-rounds", "a round-end signal",
			"tracker track ws://a ws://b --align-by phase --round-end END --max-rounds 3")
	}
	if c.Capacity < 1 {
		return NewRangeError("capacity", c.Capacity, "must be >= 1")
	}
	if c.RoundPause < 0 {
		return NewRangeError("round-pause", c.RoundPause, "must be >= 0")
	}
	if _, err := ParseLatePolicy(string(c.LatePolicy)); err != nil {
		return err
	}
	switch c.Mode {
	case ModeLogs, ModePretty, ModeVisual:
	default:
		return &ConfigError{Code: ErrCodeUnknownValue, Field: "mode", Reason: fmt.Sprintf("unknown output mode %d", c.Mode)}
	}
	return nil
}
