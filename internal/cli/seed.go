package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"relgraph/internal/codec"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <fixture>",
		Short: "Load a JSON or YAML fixture into the database",
		Long: `Load businesses, departments and employees from a fixture file in a
single transaction. Departments and employees refer to businesses and
departments by name. The format follows the file extension (.json, else YAML).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			format := "yaml"
			if strings.EqualFold(filepath.Ext(path), ".json") {
				format = "json"
			}
			c, err := codec.ForFormat(format)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Err: err}
			}

			f, err := os.Open(path)
			if err != nil {
				return commandError("open fixture: %w", err)
			}
			defer f.Close()

			fixture, err := c.Parse(f)
			if err != nil {
				return &ExitError{Code: ExitCommandError, Err: err}
			}

			graph, s, err := rootOpts.openGraph(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := graph.Import(cmd.Context(), fixture)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d businesses, %d departments, %d employees, %d links\n",
				result.BusinessesCreated, result.DepartmentsCreated, result.EmployeesCreated, result.LinksCreated)
			return nil
		},
	}

	return cmd
}
