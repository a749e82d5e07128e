package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tracker/internal/ir"
)

// VersionInfo is the version command payload.
type VersionInfo struct {
	Version       string `json:"version"`
	FormatVersion string `json:"format_version"`
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("tracker %s (report format %s)", v.Version, v.FormatVersion)
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the tracker version",
		Args:          exactArgs(0),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return f.Success(VersionInfo{Version: ir.Version, FormatVersion: ir.FormatVersion})
		},
	}
}
