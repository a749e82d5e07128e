package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
	"github.com/roach88/tracker/internal/testutil"
)

// Scenario defines a conformance scenario: a scripted interleaving of
// events on both sides plus assertions on the resulting trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the session ID
	// and the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Config selects the alignment mode.
	Config ScenarioConfig `yaml:"config"`

	// Events is the script, delivered one at a time in order.
	Events []EventStep `yaml:"events"`

	// Assertions validate the final trace.
	// Supported types: trace_contains, trace_order, trace_count,
	// round_stats, summary
	Assertions []Assertion `yaml:"assertions"`
}

// ScenarioConfig mirrors the tracker settings a scenario may set.
type ScenarioConfig struct {
	// AlignBy is the key path. Empty runs the raw diff mode.
	AlignBy string `yaml:"align_by,omitempty"`

	// RoundEnd is the round-end key. Empty runs continuous mode.
	RoundEnd string `yaml:"round_end,omitempty"`

	MaxRounds  int    `yaml:"max_rounds,omitempty"`
	Capacity   int    `yaml:"capacity,omitempty"`
	LateEvents string `yaml:"late_events,omitempty"`

	// Engine is the diff engine name. Default: json-patch.
	Engine string `yaml:"engine,omitempty"`
}

// EventStep is one scripted event. Exactly one of Left and Right is set.
type EventStep struct {
	Left  any `yaml:"left,omitempty"`
	Right any `yaml:"right,omitempty"`
}

// Assertion validates the recorded trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a line starts with Line
	// - "trace_order": Lines appear in order
	// - "trace_count": exactly Count lines start with Line
	// - "round_stats": round Round closed with the given stats
	// - "summary": the run stopped for Reason after Rounds rounds
	Type string `yaml:"type"`

	// Line is a trace line prefix (trace_contains, trace_count).
	Line string `yaml:"line,omitempty"`

	// Lines are trace line prefixes in expected order (trace_order).
	Lines []string `yaml:"lines,omitempty"`

	// Count is the expected number of matching lines (trace_count).
	Count int `yaml:"count,omitempty"`

	// Round and the stats below are used by round_stats.
	Round        int `yaml:"round,omitempty"`
	Matched      int `yaml:"matched,omitempty"`
	MissingRight int `yaml:"missing_right,omitempty"`
	MissingLeft  int `yaml:"missing_left,omitempty"`

	// Reason and Rounds are used by summary.
	Reason string `yaml:"reason,omitempty"`
	Rounds int    `yaml:"rounds,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertRoundStats    = "round_stats"
	AssertSummary       = "summary"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Events) == 0 {
		return fmt.Errorf("events list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if err := s.Config.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	for i, step := range s.Events {
		if (step.Left == nil) == (step.Right == nil) {
			return fmt.Errorf("events[%d]: exactly one of left or right is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func (c ScenarioConfig) validate() error {
	if c.AlignBy == "" && (c.RoundEnd != "" || c.MaxRounds != 0 || c.LateEvents != "") {
		return fmt.Errorf("round_end, max_rounds and late_events require align_by")
	}
	_, err := c.engineConfig()
	return err
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Line == "" {
			return fmt.Errorf("assertions[%d]: line is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Lines) < 2 {
			return fmt.Errorf("assertions[%d]: at least two lines are required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Line == "" {
			return fmt.Errorf("assertions[%d]: line is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertRoundStats:
		if a.Round < 1 {
			return fmt.Errorf("assertions[%d]: round must be >= 1 for round_stats", index)
		}
	case AssertSummary:
		if a.Reason == "" {
			return fmt.Errorf("assertions[%d]: reason is required for summary", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// engineConfig builds the engine configuration for an aligned run.
func (c ScenarioConfig) engineConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()
	cfg.RoundPause = 0
	if c.RoundEnd != "" {
		cfg.RoundEnd = ir.KeyOf(c.RoundEnd)
	}
	cfg.MaxRounds = c.MaxRounds
	if c.Capacity != 0 {
		cfg.Capacity = c.Capacity
	}
	if c.LateEvents != "" {
		p, err := engine.ParseLatePolicy(c.LateEvents)
		if err != nil {
			return cfg, err
		}
		cfg.LatePolicy = p
	}
	if c.AlignBy != "" {
		if _, err := align.NewPath(c.AlignBy); err != nil {
			return cfg, err
		}
	}
	if _, err := differ.ParseEngine(c.differEngine()); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c ScenarioConfig) differEngine() string {
	if c.Engine == "" {
		return string(differ.JSONPatch)
	}
	return c.Engine
}

// Steps converts the script to driver steps. Payloads are encoded as
// compact JSON with sorted keys.
func (s *Scenario) Steps() ([]testutil.Step, error) {
	steps := make([]testutil.Step, 0, len(s.Events))
	for i, ev := range s.Events {
		side, body := ir.Left, ev.Left
		if body == nil {
			side, body = ir.Right, ev.Right
		}
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("events[%d]: encode payload: %w", i, err)
		}
		steps = append(steps, testutil.Step{Side: side, Payload: string(payload)})
	}
	return steps, nil
}
