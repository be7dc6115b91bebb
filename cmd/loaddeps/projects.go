// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

type (
	projectsView struct {
		Solution string        `json:"solution" yaml:"solution" toml:"solution"`
		Filter   string        `json:"filter,omitempty" yaml:"filter,omitempty" toml:"filter,omitempty"`
		Projects []projectView `json:"projects" yaml:"projects" toml:"projects"`
	}

	projectView struct {
		Name     string `json:"name" yaml:"name" toml:"name"`
		ID       string `json:"id" yaml:"id" toml:"id"`
		Manifest string `json:"manifest" yaml:"manifest" toml:"manifest"`
		Loaded   bool   `json:"loaded" yaml:"loaded" toml:"loaded"`
	}
)

func newProjectsCommand(app *App) *cobra.Command {
	format := newFormatFlag()
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects of the solution and whether they are loaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := app.openWorkspace()
			if err != nil {
				return app.fail(err)
			}
			defer ws.Close()

			view := projectsView{Solution: ws.Solution().Path, Projects: []projectView{}}
			if f := ws.Filter(); f != nil {
				view.Filter = f.Path()
			}
			for _, p := range ws.Projects() {
				view.Projects = append(view.Projects, projectView{
					Name:     p.Name,
					ID:       p.ID.String(),
					Manifest: string(p.Manifest),
					Loaded:   p.Loaded,
				})
			}

			if format.value != formatText {
				return encode(app.stdout, format.value, view)
			}

			fmt.Fprintln(app.stdout, TitleStyle.Render(view.Solution))
			if view.Filter != "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("filter: "+view.Filter))
			}
			fmt.Fprintln(app.stdout)
			for _, p := range ws.Projects() {
				mark := SuccessStyle.Render("●")
				if !p.Loaded {
					mark = WarningStyle.Render("○")
				}
				fmt.Fprintf(app.stdout, "%s %s %s %s\n", mark, CmdStyle.Render(p.Name),
					VerboseStyle.Render("{"+p.ID.String()+"}"), SubtitleStyle.Render(p.RelPath))
			}
			return nil
		},
	}
	cmd.Flags().VarP(format, "format", "o", "output format: text, json, yaml or toml")
	return cmd
}
