package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"relgraph/internal/domain"
	"relgraph/internal/store"
)

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		output string
		keep   bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the Acme/Finance/Jane walkthrough and print each snapshot",
		Long: `Create business Acme, department Finance linked to it and employee Jane
in both, print the graph, then delete Finance and print it again. Jane stays
employed by Acme with no department.

Runs against an in-memory store unless --keep is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return commandError("invalid output %q: must be text or json", output)
			}
			if !keep {
				rootOpts.Config.Database.Path = store.MemoryPath
			}
			return runDemo(cmd, rootOpts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text|json)")
	cmd.Flags().BoolVar(&keep, "keep", false, "run against the configured database instead of memory")
	return cmd
}

func runDemo(cmd *cobra.Command, opts *RootOptions, output string) error {
	ctx := cmd.Context()
	graph, s, err := opts.openGraph(ctx, nil)
	if err != nil {
		return err
	}
	defer s.Close()

	w := cmd.OutOrStdout()
	show := func(title string) error {
		view := graph.View()
		if output == "json" {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]interface{}{"step": title, "view": view})
		}
		writeView(w, title, view)
		return nil
	}

	acme, err := graph.AddBusiness(ctx, "Acme")
	if err != nil {
		return err
	}
	finance, err := graph.AddDepartment(ctx, "Finance", []string{acme.ID}, "")
	if err != nil {
		return err
	}
	if _, err := graph.AddEmployee(ctx, domain.EmployeeInput{
		Name:         "Jane",
		Age:          30,
		BusinessID:   acme.ID,
		DepartmentID: finance.ID,
	}); err != nil {
		return err
	}
	if err := show("after setup"); err != nil {
		return err
	}

	if err := graph.DeleteDepartment(ctx, finance.ID); err != nil {
		return err
	}
	return show("after deleting Finance")
}

// writeView renders a view as indented text
func writeView(w io.Writer, title string, v *domain.View) {
	fmt.Fprintf(w, "== %s (%s)\n", title, v.State)

	fmt.Fprintln(w, "Businesses:")
	for _, b := range v.Businesses {
		fmt.Fprintf(w, "  %s\n", b.Name)
		fmt.Fprintf(w, "    departments: %s\n", list(b.Departments))
		fmt.Fprintf(w, "    employees:   %s\n", list(b.Employees))
	}

	fmt.Fprintln(w, "Departments:")
	for _, d := range v.Departments {
		fmt.Fprintf(w, "  %s\n", d.Name)
		fmt.Fprintf(w, "    businesses: %s\n", list(d.Businesses))
		fmt.Fprintf(w, "    employees:  %s\n", list(d.Employees))
	}

	fmt.Fprintln(w, "Employees:")
	for _, e := range v.Employees {
		fmt.Fprintf(w, "  %s, %d\n", e.Name, e.Age)
		fmt.Fprintf(w, "    business:   %s\n", orNone(e.Business))
		fmt.Fprintf(w, "    department: %s\n", orNone(e.Department))
	}
}

func list(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func orNone(name string) string {
	if name == "" {
		return "-"
	}
	return name
}
