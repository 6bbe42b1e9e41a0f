package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/riglink/pkg/buildinfo"
)

// Execute runs the riglink CLI with args and returns an error if the
// command fails.
//
// Logging goes to logOut:
//   - Default: info level
//   - With --verbose (-v): debug level
//
// The logger is attached to the command context and reachable from every
// command through loggerFromContext.
func Execute(ctx context.Context, logOut io.Writer, args []string) error {
	var verbose bool

	c := New(logOut, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
		}
		cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	}

	return root.ExecuteContext(ctx)
}

// versionCommand prints build information.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
