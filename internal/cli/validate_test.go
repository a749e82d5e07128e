package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const profileYAML = `align_by: phase
round_end: END
max_rounds: 2
late_events: defer
engine: unified
`

func TestValidate_ProfileText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tracker.yaml", profileYAML)

	out, _, err := execute(t, "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Configuration valid")
	assert.Contains(t, out, "alignment    path phase")
	assert.Contains(t, out, "round end    END")
	assert.Contains(t, out, "max rounds   2")
	assert.Contains(t, out, "late events  defer")
	assert.Contains(t, out, "engine       unified")
}

func TestValidate_FlagsOverrideProfile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "tracker.yaml", profileYAML)

	out, _, err := execute(t, "validate", "--config", path, "--once", "--visual", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.True(t, resp.Data.Valid)
	require.NotNil(t, resp.Data.Settings)
	assert.Equal(t, 1, resp.Data.Settings.MaxRounds)
	assert.Equal(t, "visual", resp.Data.Settings.Mode)
	assert.Equal(t, "unified", resp.Data.Settings.Engine)
}

func TestValidate_EnvironmentIsLowestLayer(t *testing.T) {
	t.Setenv("TRACKER_BUFFER_CAPACITY", "7")
	t.Setenv("TRACKER_ROUND_PAUSE", "3s")

	out, _, err := execute(t, "validate", "--round-pause", "1s", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 7, resp.Data.Settings.Capacity)
	assert.Equal(t, "1s", resp.Data.Settings.RoundPause)
	assert.Equal(t, "none (raw diff)", resp.Data.Settings.Alignment)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		profile string
		args    []string
		code    string
	}{
		{"report without round end", "", []string{"--align-by", "phase", "--report", "out.html"}, ErrCodeConfiguration},
		{"schema violation", "capacity: 0\n", nil, ErrCodeProfile},
		{"unknown field", "colour: blue\n", nil, ErrCodeProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"validate", "--format", "json"}, tt.args...)
			if tt.profile != "" {
				args = append(args, "--config", writeFile(t, t.TempDir(), "tracker.yaml", tt.profile))
			}

			out, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))

			var resp CLIResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestValidate_MissingProfile(t *testing.T) {
	out, _, err := execute(t, "validate", "--config", "nope.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E002]")
}
