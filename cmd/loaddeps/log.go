// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loaddeps/loaddeps/internal/pane"
	"github.com/loaddeps/loaddeps/internal/reload"
)

func newLogCommand(app *App) *cobra.Command {
	var (
		lines    int
		pathOnly bool
	)
	cmd := &cobra.Command{
		Use:   "log",
		Short: `Show the "Load All Dependencies" failure log`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := app.settings().PaneDir()
			if err != nil {
				return app.fail(err)
			}
			path := filepath.Join(dir, pane.FileName(reload.PaneID))
			if pathOnly {
				fmt.Fprintln(app.stdout, path)
				return nil
			}

			tail, err := pane.Tail(dir, reload.PaneID, lines)
			if errors.Is(err, fs.ErrNotExist) {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("No failures have been logged."))
				return nil
			}
			if err != nil {
				return app.fail(err)
			}

			fmt.Fprintln(app.stderr, VerboseStyle.Render(path))
			for _, line := range tail {
				fmt.Fprintln(app.stdout, line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 40, "number of trailing lines to show (0 for all)")
	cmd.Flags().BoolVar(&pathOnly, "path", false, "print the log file path only")
	return cmd
}
