// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/loaddeps/loaddeps/internal/closure"
	"github.com/loaddeps/loaddeps/internal/config"
	"github.com/loaddeps/loaddeps/internal/host"
	"github.com/loaddeps/loaddeps/internal/issue"
	"github.com/loaddeps/loaddeps/internal/manifest"
	"github.com/loaddeps/loaddeps/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. It is the composition root for
	// the CLI layer: every Cobra command handler receives an App reference and
	// reaches configuration, the solution workspace and the resolver through it.
	App struct {
		Config  ConfigProvider
		stdout  io.Writer
		stderr  io.Writer
		workDir string

		flags     rootFlags
		cfg       *config.Config
		cfgSource string
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Stdout io.Writer
		Stderr io.Writer
		// WorkDir anchors relative paths and solution discovery. Defaults to
		// the process working directory.
		WorkDir string
	}

	// ConfigProvider loads configuration using explicit options.
	// config.Provider satisfies it.
	ConfigProvider interface {
		LoadWithSource(ctx context.Context, opts config.LoadOptions) (*config.Config, string, error)
	}

	rootFlags struct {
		verbose  bool
		config   string
		solution string
		filter   string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		deps.WorkDir = wd
	}

	return &App{
		Config:  deps.Config,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		workDir: deps.WorkDir,
	}, nil
}

// loadConfig loads configuration once per invocation. Without an explicit
// --config a broken config file degrades to defaults with a warning; an
// explicit --config must load.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	opts := config.LoadOptions{BaseDir: types.FilesystemPath(a.workDir)}
	if a.flags.config != "" {
		opts.ConfigFilePath = types.FilesystemPath(a.abs(a.flags.config))
	}

	cfg, source, err := a.Config.LoadWithSource(ctx, opts)
	if err != nil {
		if a.flags.config != "" {
			return nil, newServiceError(err, issue.ConfigLoadFailedId, "")
		}
		fmt.Fprintln(a.stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, a.flags.verbose))
		cfg, source = config.DefaultConfig(), ""
	}

	a.cfg, a.cfgSource = cfg, source
	return cfg, nil
}

// settings returns the loaded configuration, or defaults before loading.
func (a *App) settings() *config.Config {
	if a.cfg == nil {
		return config.DefaultConfig()
	}
	return a.cfg
}

func (a *App) verbose() bool {
	return a.flags.verbose || a.settings().UI.Verbose
}

// glamourStyle maps the configured color scheme to a glamour style name.
func (a *App) glamourStyle() string {
	switch a.settings().UI.ColorScheme {
	case config.ColorSchemeDark:
		return "dark"
	case config.ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

func (a *App) manifestReader() *manifest.Reader {
	return manifest.NewReader(a.settings().Manifest.MaxFileSize)
}

func (a *App) resolver() *closure.Resolver {
	return closure.NewResolver(
		closure.WithReader(a.manifestReader()),
		closure.WithPathCase(a.settings().PathCase),
	)
}

// openWorkspace opens the solution named by --solution/--filter, the
// configuration, or the single *.sln in the working directory, in that order.
// The caller must Close the workspace.
func (a *App) openWorkspace() (*host.Workspace, error) {
	cfg := a.settings()

	solution, filter := a.flags.solution, a.flags.filter
	if solution == "" && filter == "" {
		solution, filter = cfg.Solution, cfg.Filter
	}
	if solution == "" && filter == "" {
		found, err := host.FindSolution(a.workDir)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("find solution").
				WithSuggestion("Run loaddeps from the directory that holds the *.sln file").
				WithSuggestion("Pass --solution or --filter to name it explicitly").
				WithSuggestion("Set solution in config.cue ('loaddeps config path' shows where)").
				Wrap(err).
				BuildError()
		}
		solution = found
	}

	ws, err := host.Open(host.Options{
		Solution: a.abs(solution),
		Filter:   a.abs(filter),
		PathCase: cfg.PathCase,
		Reader:   a.manifestReader(),
	})
	if err != nil {
		return nil, err
	}
	slog.Debug("workspace ready", "solution", ws.Solution().Path, "projects", len(ws.Solution().Projects))
	return ws, nil
}

// manifestArg converts a command-line manifest path to an absolute ManifestPath.
func (a *App) manifestArg(arg string) (types.ManifestPath, error) {
	p := types.ManifestPath(filepath.Clean(a.abs(arg)))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// abs resolves p against the working directory. Empty stays empty.
func (a *App) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.workDir, p)
}

// rel shortens p for display when it lies under the working directory.
func (a *App) rel(p types.ManifestPath) string {
	r, err := filepath.Rel(a.workDir, string(p))
	if err != nil || !filepath.IsLocal(r) {
		return string(p)
	}
	return r
}

// fail converts a fatal error into an ExitError carrying the issue catalog
// entry that explains it.
func (a *App) fail(err error) error {
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		err = newServiceError(err, classifyError(err), "")
	}
	return &ExitError{Code: types.ExitFatal, Err: err}
}
