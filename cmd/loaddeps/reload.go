// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/loaddeps/loaddeps/internal/issue"
	"github.com/loaddeps/loaddeps/internal/pane"
	"github.com/loaddeps/loaddeps/internal/reload"
	"github.com/loaddeps/loaddeps/pkg/types"
)

// noticeCard shows the blocking failure notice as a styled card followed by
// the reload-failure issue entry.
type noticeCard struct {
	w     io.Writer
	style string
}

func newReloadCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reload [project]",
		Short: "Load a project and every project it references",
		Long: `Load the selected project into the solution filter, then load every
project reachable through its ProjectReference items.

The project may be named by its solution name or by the path of its project
file. Without a project nothing is selected and nothing happens.

Each project is attempted independently. When any attempt fails, the
failures are appended to the "Load All Dependencies" output pane (see
'loaddeps log') and the command exits with status 1.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arg string
			if len(args) > 0 {
				arg = args[0]
			}
			return app.runReload(cmd.Context(), arg)
		},
	}
}

func (a *App) runReload(ctx context.Context, arg string) error {
	if arg == "" {
		return nil
	}

	ws, err := a.openWorkspace()
	if err != nil {
		return a.fail(err)
	}
	defer ws.Close()

	paneDir, err := a.settings().PaneDir()
	if err != nil {
		return a.fail(err)
	}
	failureLog := &pane.Log{Dir: paneDir}
	if a.verbose() {
		failureLog.Echo = a.stderr
	}

	orch, err := reload.New(reload.Dependencies{
		Selection: ws.Selection(a.selectionArg(arg)),
		Lookup:    ws,
		Reloader:  ws,
		Resolver:  a.resolver(),
		Log:       failureLog,
		Notifier:  &noticeCard{w: a.stderr, style: a.glamourStyle()},
	})
	if err != nil {
		return a.fail(err)
	}

	report, err := orch.Run(ctx)
	if err != nil {
		return a.fail(err)
	}
	if report == nil {
		return nil
	}

	printReport(a.stdout, report)
	if report.HasFailures() {
		return &ExitError{Code: types.ExitReloadFailed}
	}
	return nil
}

// selectionArg anchors a relative project file path at the working directory.
// Anything that is not an existing file is passed through as a project name.
func (a *App) selectionArg(arg string) string {
	if p := a.abs(arg); p != arg {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return arg
}

func printReport(w io.Writer, report *reload.Report) {
	loaded := 0
	for _, o := range report.Outcomes {
		mark := SuccessStyle.Render("✓")
		if !o.Ok() {
			mark = ErrorStyle.Render("✗")
		} else {
			loaded++
		}
		line := fmt.Sprintf("%s %s", mark, CmdStyle.Render(o.Label))
		if o.Selected {
			line += VerboseStyle.Render(" (selected)")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "\n%s\n", SubtitleStyle.Render(fmt.Sprintf("Loaded %d of %d projects.", loaded, len(report.Outcomes))))
}

// ShowBlockingNotice implements reload.Notifier.
func (n *noticeCard) ShowBlockingNotice(_ context.Context, message, title string) {
	card := noticeHeaderStyle.Render(title) + "\n" +
		noticeBodyStyle.Render(message) + "\n" +
		noticeHintStyle.Render("Run 'loaddeps log' to see what went wrong.")
	fmt.Fprintln(n.w, card)
	renderIssue(n.w, issue.ReloadFailedId, n.style)
}
