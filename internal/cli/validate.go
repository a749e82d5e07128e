package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tracker/internal/config"
	"github.com/roach88/tracker/internal/engine"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool          `json:"valid"`
	Settings *SettingsView `json:"settings,omitempty"`
}

// SettingsView is the printable form of resolved settings.
type SettingsView struct {
	Alignment  string `json:"alignment"`
	RoundEnd   string `json:"round_end,omitempty"`
	Report     string `json:"report,omitempty"`
	MaxRounds  int    `json:"max_rounds"`
	Capacity   int    `json:"capacity"`
	RoundPause string `json:"round_pause"`
	LateEvents string `json:"late_events"`
	Engine     string `json:"engine"`
	Mode       string `json:"mode"`
	Filter     string `json:"filter,omitempty"`
	NoColor    bool   `json:"no_color"`
}

func newSettingsView(s config.Settings) *SettingsView {
	v := &SettingsView{
		Alignment:  "none (raw diff)",
		Report:     s.Engine.ReportPath,
		MaxRounds:  s.Engine.MaxRounds,
		Capacity:   s.Engine.Capacity,
		RoundPause: s.Engine.RoundPause.String(),
		LateEvents: string(s.Engine.LatePolicy),
		Engine:     string(s.Differ),
		Mode:       s.Engine.Mode.String(),
		Filter:     s.Filter,
		NoColor:    s.NoColor,
	}
	switch {
	case s.AutoAlign:
		v.Alignment = "auto"
	case s.AlignBy != "":
		v.Alignment = "path " + s.AlignBy
	}
	if s.Engine.RoundMode() {
		v.RoundEnd = s.Engine.RoundEnd.String()
	}
	return v
}

func (v *SettingsView) String() string {
	var b strings.Builder
	row := func(k string, val any) { fmt.Fprintf(&b, "  %-12s %v\n", k, val) }
	row("alignment", v.Alignment)
	if v.RoundEnd != "" {
		row("round end", v.RoundEnd)
	} else {
		row("round end", "none (continuous)")
	}
	if v.Report != "" {
		row("report", v.Report)
	}
	if v.MaxRounds > 0 {
		row("max rounds", v.MaxRounds)
	} else {
		row("max rounds", "unlimited")
	}
	row("capacity", v.Capacity)
	row("round pause", v.RoundPause)
	row("late events", v.LateEvents)
	row("engine", v.Engine)
	row("mode", v.Mode)
	if v.Filter != "" {
		row("filter", v.Filter)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TrackOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a profile and flags without connecting",
		Long: `Resolve environment, profile and flags exactly as track would, and print
the resulting settings. Nothing connects.

Examples:
  tracker validate --config tracker.yaml
  tracker validate --config tracker.cue --report out.html --format json`,
		Args:          exactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	opts.registerAlignFlags(cmd)
	opts.registerOutputFlags(cmd)
	return cmd
}

func runValidate(opts *TrackOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if opts.Config != "" {
		formatter.VerboseLog("Loading profile %s", opts.Config)
	}

	s, err := opts.settings(cmd)
	if err != nil {
		return outputValidateError(formatter, err)
	}

	view := newSettingsView(s)
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Settings: view})
	}
	fmt.Fprintln(formatter.Writer, "✓ Configuration valid")
	fmt.Fprintln(formatter.Writer, view)
	return nil
}

// outputValidateError reports a resolution failure and returns it as a
// command error (exit code 2).
func outputValidateError(formatter *OutputFormatter, err error) error {
	code := ErrCodeGeneric
	var details any
	var pe *config.ProfileError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = ErrCodeNotFound
	case errors.As(err, &pe):
		code = ErrCodeProfile
	case engine.IsConfigError(err):
		code = ErrCodeConfiguration
		ce, _ := engine.AsConfigError(err)
		details = map[string]string{"field": ce.Field, "reason": ce.Reason, "hint": ce.Hint}
	}
	_ = formatter.Error(code, err.Error(), details)

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return WrapExitError(ExitCommandError, code, err)
}
