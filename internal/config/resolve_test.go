package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tracker/internal/align"
	"github.com/roach88/tracker/internal/differ"
	"github.com/roach88/tracker/internal/engine"
)

func TestResolve_Defaults(t *testing.T) {
	s, err := Resolve()
	require.NoError(t, err)

	assert.Equal(t, engine.DefaultConfig(), s.Engine)
	assert.Equal(t, differ.JSONPatch, s.Differ)
	assert.False(t, s.Aligned())
	assert.Equal(t, align.DefaultCapacity, s.Engine.Capacity)
}

func TestResolve_Precedence(t *testing.T) {
	env := Profile{Capacity: ptr(20), RoundPause: ptr("1s"), NoColor: ptr(true)}
	profile := Profile{AlignBy: ptr("phase"), RoundEnd: ptr("END"), Capacity: ptr(30), Engine: ptr("unified")}
	flags := Profile{Capacity: ptr(40), Once: ptr(true)}

	s, err := Resolve(env, profile, flags)
	require.NoError(t, err)

	assert.Equal(t, 40, s.Engine.Capacity)
	assert.Equal(t, time.Second, s.Engine.RoundPause)
	assert.Equal(t, 1, s.Engine.MaxRounds)
	assert.Equal(t, "phase", s.AlignBy)
	assert.Equal(t, differ.Unified, s.Differ)
	assert.True(t, s.NoColor)
	assert.True(t, s.Engine.RoundMode())
}

func TestResolve_FlagMaxRoundsOverridesProfileOnce(t *testing.T) {
	profile := Profile{AlignBy: ptr("phase"), RoundEnd: ptr("END"), Once: ptr(true)}
	flags := Profile{MaxRounds: ptr(5)}

	s, err := Resolve(profile, flags)
	require.NoError(t, err)
	assert.Equal(t, 5, s.Engine.MaxRounds)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name  string
		layer Profile
		code  engine.ConfigErrorCode
		field string
	}{
		{"report without round end", Profile{AlignBy: ptr("phase"), Report: ptr("out.html")}, engine.ErrCodeMissingDependency, "report"},
		{"round end without key", Profile{RoundEnd: ptr("END")}, engine.ErrCodeMissingDependency, "round-end"},
		{"empty round end", Profile{AlignBy: ptr("phase"), RoundEnd: ptr(""), Report: ptr("out.html")}, engine.ErrCodeUnknownValue, "round-end"},
		{"once and max rounds", Profile{Once: ptr(true), MaxRounds: ptr(2)}, engine.ErrCodeConflict, "once"},
		{"zero max rounds", Profile{AlignBy: ptr("p"), RoundEnd: ptr("E"), MaxRounds: ptr(0)}, engine.ErrCodeOutOfRange, "max-rounds"},
		{"zero capacity", Profile{Capacity: ptr(0)}, engine.ErrCodeOutOfRange, "capacity"},
		{"bad pause", Profile{RoundPause: ptr("soon")}, engine.ErrCodeUnknownValue, "round-pause"},
		{"bad policy", Profile{LateEvents: ptr("drop")}, engine.ErrCodeUnknownValue, "late-events"},
		{"bad engine", Profile{Engine: ptr("xml")}, engine.ErrCodeUnknownValue, "engine"},
		{"bad mode", Profile{Mode: ptr("tui")}, engine.ErrCodeUnknownValue, "mode"},
		{"bad report extension", Profile{AlignBy: ptr("p"), RoundEnd: ptr("E"), Report: ptr("out.txt")}, engine.ErrCodeUnknownValue, "report"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.layer)
			ce, ok := engine.AsConfigError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.code, ce.Code)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Visual")
	require.NoError(t, err)
	assert.Equal(t, engine.ModeVisual, m)

	_, err = ParseMode("")
	assert.True(t, engine.IsConfigError(err))
}
