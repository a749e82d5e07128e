package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tracker/internal/config"
	"github.com/roach88/tracker/internal/engine"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	LogFormat string // "json" | "text", overrides TRACKER_LOG_FORMAT

	// Env is parsed from TRACKER_* variables before any command runs.
	Env config.Env

	// Logger is configured from Env and the global flags.
	Logger *slog.Logger

	// SessionIDs overrides the engine's session ID generator (for testing).
	SessionIDs engine.SessionIDGenerator
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tracker CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tracker",
		Short: "Align and compare two JSON event streams",
		Long: `tracker consumes two JSON event streams, aligns them on a key taken from
each payload and reports where they agree and where they diverge.

Sources are WebSocket URLs (ws://, wss://) or recorded files (.jsonl,
.ndjson, .json, .yaml). Environment variables prefixed with TRACKER_
supply defaults; a --config profile overrides them and flags override both.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			env, err := config.ParseEnv()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid environment", err)
			}
			if cmd.Flags().Changed("log-format") {
				if err := config.CheckLogFormat(opts.LogFormat); err != nil {
					return WrapExitError(ExitCommandError, "invalid --log-format", err)
				}
				env.LogFormat = opts.LogFormat
			}
			opts.Env = env
			opts.Logger = newLogger(cmd.ErrOrStderr(), env, opts.Verbose)
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output (debug logging)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format (json|text)")

	cmd.AddCommand(NewTrackCommand(opts))
	cmd.AddCommand(NewDiffCommand(opts))
	cmd.AddCommand(NewExampleCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))

	return cmd
}

// newLogger builds the slog logger. --verbose forces debug level.
func newLogger(w io.Writer, env config.Env, verbose bool) *slog.Logger {
	level, _ := config.ParseLevel(env.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if env.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
