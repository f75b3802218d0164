package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display h5pup version and build information.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "h5pup v%s\n", version)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "H5P content parameter upgrade engine with Starlark upgrade scripts")
		},
	}
}
