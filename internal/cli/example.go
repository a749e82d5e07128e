package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tracker/internal/source"
)

// ExampleOptions holds flags for the example command.
type ExampleOptions struct {
	TrackOptions
	LeftInterval  int
	RightInterval int
	Limit         int
	Seed          uint64
}

// NewExampleCommand creates the example command.
func NewExampleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExampleOptions{TrackOptions: TrackOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "example",
		Short: "Track two synthetic streams",
		Long: `Run the tracker against two generated e-commerce-like streams.

Without --align-by or --auto-align the streams are diffed raw. With an
alignment key every track flag applies.

Examples:
  tracker example
  tracker example --align-by event_type --pretty
  tracker example --left-interval 200 --right-interval 350 --auto-align --visual`,
		Args:          exactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExample(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.LeftInterval, "left-interval", 1000, "milliseconds between left events")
	cmd.Flags().IntVar(&opts.RightInterval, "right-interval", 1500, "milliseconds between right events")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "events per side, 0 for unlimited")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "seed for reproducible streams, 0 for random")
	opts.registerAlignFlags(cmd)
	opts.registerOutputFlags(cmd)
	return cmd
}

func runExample(opts *ExampleOptions, cmd *cobra.Command) error {
	if opts.LeftInterval < 1 || opts.RightInterval < 1 {
		return NewExitError(ExitCommandError, "--left-interval and --right-interval must be >= 1")
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "--limit must be >= 0")
	}

	s, err := opts.settings(cmd)
	if err != nil {
		return err
	}

	common := []source.Option{source.WithLogger(opts.Logger), source.WithLimit(opts.Limit)}
	leftOpts := append(common[:len(common):len(common)], source.WithInterval(time.Duration(opts.LeftInterval)*time.Millisecond))
	rightOpts := append(common[:len(common):len(common)], source.WithInterval(time.Duration(opts.RightInterval)*time.Millisecond))
	if opts.Seed != 0 {
		leftOpts = append(leftOpts, source.WithSeed(opts.Seed))
		rightOpts = append(rightOpts, source.WithSeed(opts.Seed+1))
	}

	left := source.NewSynthetic("left", leftOpts...)
	right := source.NewSynthetic("right", rightOpts...)
	return runTracker(opts.RootOptions, s, left, right, cmd)
}
