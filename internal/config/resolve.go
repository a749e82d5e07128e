package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
	"github.com/roach88/tracker/internal/ir"
)

// Settings is the fully resolved configuration of one run.
type Settings struct {
	// Engine is the validated engine configuration.
	Engine engine.Config

	// AlignBy is the alignment key path. Empty when AutoAlign is set or
	// no alignment is configured.
	AlignBy string

	// AutoAlign selects the heuristic extractor.
	AutoAlign bool

	// Differ is the diff engine.
	Differ differ.Engine

	// Filter is a CEL expression applied to both sources. Empty keeps
	// every event.
	Filter string

	// NoColor disables ANSI colors.
	NoColor bool
}

// Aligned reports whether an extractor is configured.
func (s Settings) Aligned() bool {
	return s.AlignBy != "" || s.AutoAlign
}

// Resolve merges layers from lowest to highest priority on top of the
// defaults and validates the result. Callers pass environment, profile
// and flags in that order.
func Resolve(layers ...Profile) (Settings, error) {
	var merged Profile
	for _, l := range layers {
		if err := l.Conflicts(); err != nil {
			return Settings{}, err
		}
		merged = merged.Merge(l)
	}

	s := Settings{Engine: engine.DefaultConfig(), Differ: differ.JSONPatch}
	cfg := &s.Engine

	if merged.AlignBy != nil {
		s.AlignBy = *merged.AlignBy
	}
	if merged.AutoAlign != nil {
		s.AutoAlign = *merged.AutoAlign
	}
	if merged.RoundEnd != nil {
		if *merged.RoundEnd == "" {
			return Settings{}, engine.NewEmptyKeyError("round-end")
		}
		cfg.RoundEnd = ir.KeyOf(*merged.RoundEnd)
	}
	if merged.Report != nil {
		cfg.ReportPath = *merged.Report
	}
	if merged.Once != nil && *merged.Once {
		cfg.MaxRounds = 1
	}
	if merged.MaxRounds != nil {
		if *merged.MaxRounds < 1 {
			return Settings{}, engine.NewRangeError("max-rounds", *merged.MaxRounds, "must be >= 1")
		}
		cfg.MaxRounds = *merged.MaxRounds
	}
	if merged.Capacity != nil {
		cfg.Capacity = *merged.Capacity
	}
	if merged.RoundPause != nil {
		d, err := time.ParseDuration(*merged.RoundPause)
		if err != nil {
			return Settings{}, &engine.ConfigError{Code: engine.ErrCodeUnknownValue, Field: "round-pause",
				Reason: err.Error(), Hint: "use a duration such as 2s or 500ms"}
		}
		cfg.RoundPause = d
	}
	if merged.LateEvents != nil {
		p, err := engine.ParseLatePolicy(*merged.LateEvents)
		if err != nil {
			return Settings{}, err
		}
		cfg.LatePolicy = p
	}
	if merged.Engine != nil {
		e, err := differ.ParseEngine(*merged.Engine)
		if err != nil {
			return Settings{}, &engine.ConfigError{Code: engine.ErrCodeUnknownValue, Field: "engine", Reason: err.Error()}
		}
		s.Differ = e
	}
	if merged.Mode != nil {
		m, err := ParseMode(*merged.Mode)
		if err != nil {
			return Settings{}, err
		}
		cfg.Mode = m
	}
	if merged.Filter != nil {
		s.Filter = *merged.Filter
	}
	if merged.NoColor != nil {
		s.NoColor = *merged.NoColor
	}

	if cfg.RoundMode() && !s.Aligned() {
		return Settings{}, engine.NewDependencyError("round-end", "an alignment key (--align-by or --auto-align)",
			"tracker track ws://a ws://b --align-by phase --round-end END")
	}
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// ParseMode validates an output mode name.
func ParseMode(s string) (engine.Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "logs":
		return engine.ModeLogs, nil
	case "pretty":
		return engine.ModePretty, nil
	case "visual":
		return engine.ModeVisual, nil
	}
	return 0, &engine.ConfigError{Code: engine.ErrCodeUnknownValue, Field: "mode",
		Reason: fmt.Sprintf("unknown mode %q", s), Hint: "use logs, pretty or visual"}
}

func conflict(a, b string) *engine.ConfigError {
	return &engine.ConfigError{
		Code:   engine.ErrCodeConflict,
		Field:  a,
		Reason: fmt.Sprintf("cannot be combined with %s", b),
	}
}
