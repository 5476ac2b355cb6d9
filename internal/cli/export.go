package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"relgraph/internal/codec"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the graph as a fixture that seed can load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := codec.ForFormat(format)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Err: err}
			}

			graph, s, err := rootOpts.openGraph(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return commandError("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			return c.Export(graph.Snapshot(), w)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format (json|yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}
