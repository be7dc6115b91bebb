// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/loaddeps/loaddeps/internal/watch"
	"github.com/loaddeps/loaddeps/pkg/types"
)

type watchFlags struct {
	debounce time.Duration
	ignore   []string
}

func newWatchCommand(app *App) *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch <project>",
		Short: "Reload a project again whenever a project file changes",
		Long: `Reload the selected project and its references, then watch the solution
directory. Each time a project file (*.csproj) or the solution (*.sln) is
saved, the reload runs again.

Reload failures are reported and the watch continues. Press Ctrl+C to stop.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runWatch(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().DurationVar(&flags.debounce, "debounce", watch.DefaultDebounce, "quiet period before reloading")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "additional glob patterns to ignore (relative to the solution directory)")
	return cmd
}

func (a *App) runWatch(ctx context.Context, arg string, flags watchFlags) error {
	ws, err := a.openWorkspace()
	if err != nil {
		return a.fail(err)
	}
	dir := ws.Solution().Dir()
	_ = ws.Close()

	if err := a.reloadRound(ctx, arg); err != nil {
		return err
	}

	w, err := watch.New(watch.Config{
		Dir:      dir,
		Ignore:   flags.ignore,
		Debounce: flags.debounce,
		Stderr:   a.stderr,
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintf(a.stdout, "\n%s Detected %d change(s): %s\n", WarningStyle.Render("→"), len(changed), strings.Join(changed, ", "))
			if err := a.reloadRound(ctx, arg); err != nil {
				fmt.Fprintf(a.stderr, "%s %s\n", ErrorStyle.Render("✗"), formatErrorForDisplay(err, a.verbose()))
			}
			fmt.Fprintf(a.stdout, "\n%s Watching for changes...\n", WarningStyle.Render("→"))
			return nil
		},
	})
	if err != nil {
		return a.fail(err)
	}

	fmt.Fprintf(a.stdout, "\n%s Watching %s (Ctrl+C to stop)\n", WarningStyle.Render("→"), filepath.ToSlash(dir))
	if err := w.Run(ctx); err != nil {
		return a.fail(err)
	}
	return nil
}

// reloadRound runs one reload and returns only fatal errors. Failed project
// loads have already been reported by the notice card.
func (a *App) reloadRound(ctx context.Context, arg string) error {
	err := a.runReload(ctx, arg)
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Code == types.ExitReloadFailed {
		return nil
	}
	return err
}
