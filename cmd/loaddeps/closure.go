// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loaddeps/loaddeps/internal/closure"
	"github.com/loaddeps/loaddeps/internal/dag"
	"github.com/loaddeps/loaddeps/pkg/types"
)

type (
	closureView struct {
		Root     string     `json:"root" yaml:"root" toml:"root"`
		PathCase string     `json:"path_case" yaml:"path_case" toml:"path_case"`
		Members  []string   `json:"members" yaml:"members" toml:"members"`
		Edges    []edgeView `json:"edges" yaml:"edges" toml:"edges"`
	}

	edgeView struct {
		From string `json:"from" yaml:"from" toml:"from"`
		To   string `json:"to" yaml:"to" toml:"to"`
	}

	graphView struct {
		Root  string   `json:"root" yaml:"root" toml:"root"`
		Order []string `json:"order" yaml:"order" toml:"order"`
		Cycle []string `json:"cycle,omitempty" yaml:"cycle,omitempty" toml:"cycle,omitempty"`
	}
)

func newClosureCommand(app *App) *cobra.Command {
	format := newFormatFlag()
	cmd := &cobra.Command{
		Use:   "closure <project-file>",
		Short: "Print every project a project file references, transitively",
		Long: `Print the reference closure of a project file: every project reachable
through ProjectReference items, in discovery order. The project itself is
not part of its closure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.resolve(cmd, args[0])
			if err != nil {
				return app.fail(err)
			}

			view := closureView{
				Root:     string(c.Root()),
				PathCase: string(c.PathCase()),
				Members:  make([]string, 0, c.Len()),
				Edges:    []edgeView{},
			}
			for _, p := range c.Paths() {
				view.Members = append(view.Members, string(p))
			}
			for _, e := range c.Edges() {
				view.Edges = append(view.Edges, edgeView{From: string(e.From), To: string(e.To)})
			}

			if format.value != formatText {
				return encode(app.stdout, format.value, view)
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render(app.rel(c.Root())))
			if c.Len() == 0 {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("  (no project references)"))
				return nil
			}
			for _, p := range c.Paths() {
				fmt.Fprintf(app.stdout, "  %s\n", CmdStyle.Render(app.rel(p)))
			}
			return nil
		},
	}
	cmd.Flags().VarP(format, "format", "o", "output format: text, json, yaml or toml")
	return cmd
}

func newGraphCommand(app *App) *cobra.Command {
	format := newFormatFlag()
	cmd := &cobra.Command{
		Use:   "graph <project-file>",
		Short: "Print a dependency-first load order for a project's closure",
		Long: `Print the project and its reference closure ordered so that every project
comes after the projects it references. Reference cycles are reported and
make the command fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.resolve(cmd, args[0])
			if err != nil {
				return app.fail(err)
			}

			view := graphView{Root: string(c.Root()), Order: []string{}}
			order, orderErr := c.DependencyOrder()
			var cycle *dag.CycleError
			switch {
			case errors.As(orderErr, &cycle):
				view.Cycle = cycle.Cycle
			case orderErr != nil:
				return app.fail(orderErr)
			}
			for _, p := range order {
				view.Order = append(view.Order, string(p))
			}

			if format.value != formatText {
				if err := encode(app.stdout, format.value, view); err != nil {
					return err
				}
			} else {
				printGraph(app, order)
			}

			if orderErr != nil {
				return app.fail(orderErr)
			}
			return nil
		},
	}
	cmd.Flags().VarP(format, "format", "o", "output format: text, json, yaml or toml")
	return cmd
}

func printGraph(app *App, order []types.ManifestPath) {
	for i, p := range order {
		fmt.Fprintf(app.stdout, "%s %s\n", VerboseStyle.Render(fmt.Sprintf("%3d.", i+1)), CmdStyle.Render(app.rel(p)))
	}
}

// resolve walks the references of the project file named by arg.
func (a *App) resolve(cmd *cobra.Command, arg string) (*closure.Closure, error) {
	start, err := a.manifestArg(arg)
	if err != nil {
		return nil, err
	}
	return a.resolver().Resolve(cmd.Context(), start)
}
