// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/loaddeps/loaddeps/internal/config"
	"github.com/loaddeps/loaddeps/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "loaddeps",
		Short: "Reload a project and everything it references",
		Long: TitleStyle.Render("loaddeps") + SubtitleStyle.Render(" - reload a project together with its project references") + `

loaddeps reads the ProjectReference items of a project file, follows them
transitively, and loads every project it finds into the solution filter.
Failures are collected in the "Load All Dependencies" output pane.

` + SubtitleStyle.Render("Examples:") + `
  loaddeps reload App              Load App and everything it references
  loaddeps closure src/App.csproj  Print the reference closure of a project
  loaddeps graph src/App.csproj    Print a dependency-first load order
  loaddeps projects                List solution projects and their load state
  loaddeps watch App               Reload App again whenever a project file changes
  loaddeps log                     Show the failure log`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(app.stderr, app.flags.verbose)
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			if app.verbose() {
				setupLogging(app.stderr, true)
			}
			applyColorScheme(cfg.UI.ColorScheme)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.flags.config, "config", "", "config file (default is $XDG_CONFIG_HOME/loaddeps/config.cue)")
	flags.StringVarP(&app.flags.solution, "solution", "s", "", "solution file (*.sln) or solution filter (*.slnf)")
	flags.StringVarP(&app.flags.filter, "filter", "f", "", "solution filter (*.slnf) that records loaded projects")

	rootCmd.AddCommand(
		newReloadCommand(app),
		newWatchCommand(app),
		newClosureCommand(app),
		newGraphCommand(app),
		newProjectsCommand(app),
		newLogCommand(app),
		newConfigCommand(app),
	)

	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version != "dev" {
		return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev (built from source)"
}

// Execute builds the CLI and runs it. This is called by main.main().
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		os.Exit(int(types.ExitFatal))
	}

	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(app.errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(int(types.ExitFatal))
	}
}

// errorHandler renders errors on a terminal. Service errors get their issue
// catalog entry; an ExitError without a cause was already reported.
func (a *App) errorHandler(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}

	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(svcErr.Err, a.verbose()))
		renderServiceError(w, svcErr, a.glamourStyle())
		return
	}

	fang.DefaultErrorHandler(w, styles, err)
}

// setupLogging routes log/slog through a charmbracelet logger on w. Library
// packages log through slog; only warnings are shown unless verbose is set.
func setupLogging(w io.Writer, verbose bool) {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: config.AppName,
		Level:  log.WarnLevel,
	})
	if verbose {
		logger.SetLevel(log.DebugLevel)
		logger.SetReportTimestamp(true)
	}
	slog.SetDefault(slog.New(logger))
}

func applyColorScheme(scheme config.ColorScheme) {
	switch scheme {
	case config.ColorSchemeDark:
		lipgloss.SetHasDarkBackground(true)
	case config.ColorSchemeLight:
		lipgloss.SetHasDarkBackground(false)
	}
}
