package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/tracker/internal/source"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TrackOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff <left> <right>",
		Short: "Diff the latest payloads of two streams",
		Long: `Compare two JSON event streams without alignment.

Every time either side receives an event, the latest payload of each side
is diffed. No key is extracted and no rounds are tracked.

Examples:
  tracker diff ws://localhost:8001 ws://localhost:8002
  tracker diff left.jsonl right.jsonl --engine structural --pretty`,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, args[0], args[1], cmd)
		},
	}

	opts.registerOutputFlags(cmd)
	return cmd
}

func runDiff(opts *TrackOptions, leftTarget, rightTarget string, cmd *cobra.Command) error {
	s, err := opts.settings(cmd)
	if err != nil {
		return err
	}
	// A profile may carry alignment settings; diff never aligns.
	s.AlignBy, s.AutoAlign = "", false

	left, err := source.Open("left", leftTarget, opts.sourceOptions()...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid left source", err)
	}
	right, err := source.Open("right", rightTarget, opts.sourceOptions()...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid right source", err)
	}
	return runTracker(opts.RootOptions, s, left, right, cmd)
}
