// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/loaddeps/loaddeps/internal/config"
	"github.com/loaddeps/loaddeps/internal/host"
	"github.com/loaddeps/loaddeps/internal/pane"
	"github.com/loaddeps/loaddeps/internal/reload"
	"github.com/loaddeps/loaddeps/internal/testutil"
	"github.com/loaddeps/loaddeps/pkg/platform"
	"github.com/loaddeps/loaddeps/pkg/types"
)

// Tests in this file are not parallel: every command run replaces the
// default slog logger.

const (
	appGUID  = "0b1e6f2a-47c4-4b8e-8f0e-1f6d2c9a0001"
	libGUID  = "0b1e6f2a-47c4-4b8e-8f0e-1f6d2c9a0002"
	coreGUID = "0b1e6f2a-47c4-4b8e-8f0e-1f6d2c9a0003"
)

type (
	staticConfig struct {
		cfg *config.Config
		err error
	}

	cliFixture struct {
		dir     string
		paneDir string
		filter  string
		app     types.ManifestPath
		lib     types.ManifestPath
		core    types.ManifestPath
	}

	cliResult struct {
		stdout string
		stderr string
		err    error
	}
)

func (s staticConfig) LoadWithSource(context.Context, config.LoadOptions) (*config.Config, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.cfg, "", nil
}

// newCLIFixture writes App -> Lib -> Core, a solution listing all three and a
// filter that loads App only.
func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	dir := t.TempDir()
	f := &cliFixture{dir: dir, paneDir: filepath.Join(t.TempDir(), "panes")}
	f.app = testutil.WriteManifest(t, dir, "App/App.csproj", `..\Lib\Lib.csproj`)
	f.lib = testutil.WriteManifest(t, dir, "Lib/Lib.csproj", `..\Core\Core.csproj`)
	f.core = testutil.WriteManifest(t, dir, "Core/Core.csproj")
	testutil.WriteSolution(t, dir, "Demo.sln",
		testutil.SolutionProject{Name: "App", RelPath: `App\App.csproj`, GUID: appGUID},
		testutil.SolutionProject{Name: "Lib", RelPath: `Lib\Lib.csproj`, GUID: libGUID},
		testutil.SolutionProject{Name: "Core", RelPath: `Core\Core.csproj`, GUID: coreGUID},
	)
	f.filter = testutil.WriteFilter(t, dir, "Demo.slnf", "Demo.sln", `App\App.csproj`)
	return f
}

func (f *cliFixture) config() *config.Config {
	cfg := config.DefaultConfig()
	cfg.PathCase = types.PathCaseSensitive
	cfg.PaneDirPath = f.paneDir
	return cfg
}

func (f *cliFixture) run(t *testing.T, args ...string) cliResult {
	t.Helper()
	return runCLI(t, f.dir, staticConfig{cfg: f.config()}, args...)
}

func runCLI(t *testing.T, dir string, provider ConfigProvider, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app, err := NewApp(Dependencies{Config: provider, Stdout: &stdout, Stderr: &stderr, WorkDir: dir})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}
	root := newRootCommand(app)
	root.SetArgs(args)
	err = root.ExecuteContext(t.Context())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(t *testing.T, err error) types.ExitCode {
	t.Helper()
	if err == nil {
		return types.ExitSuccess
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %T: %v", err, err)
	}
	return exitErr.Code
}

func TestReload_LoadsClosure(t *testing.T) {
	f := newCLIFixture(t)

	res := f.run(t, "--filter", "Demo.slnf", "reload", "App")
	if code := exitCode(t, res.err); code != types.ExitSuccess {
		t.Fatalf("exit code = %d, err = %v\nstderr:\n%s", code, res.err, res.stderr)
	}
	for _, want := range []string{"App", "(selected)", f.lib.String(), f.core.String(), "Loaded 3 of 3 projects."} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}

	filter, err := host.OpenFilter(f.filter, types.PathCaseSensitive)
	if err != nil {
		t.Fatal(err)
	}
	if got := filter.Projects(); len(got) != 3 {
		t.Errorf("filter projects = %v, want App, Lib and Core", got)
	}
	if _, err := os.Stat(filepath.Join(f.paneDir, pane.FileName(reload.PaneID))); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("no failure log should be written on success, stat err = %v", err)
	}
}

func TestReload_ByManifestPath(t *testing.T) {
	f := newCLIFixture(t)

	res := f.run(t, "--filter", "Demo.slnf", "reload", filepath.Join("App", "App.csproj"))
	if code := exitCode(t, res.err); code != types.ExitSuccess {
		t.Fatalf("exit code = %d, err = %v", code, res.err)
	}
	if !strings.Contains(res.stdout, "Loaded 3 of 3 projects.") {
		t.Errorf("stdout:\n%s", res.stdout)
	}
}

func TestReload_NoSelection(t *testing.T) {
	res := runCLI(t, t.TempDir(), staticConfig{cfg: config.DefaultConfig()}, "reload")
	if res.err != nil {
		t.Fatalf("reload without a project should be a no-op, got %v", res.err)
	}
	if res.stdout != "" {
		t.Errorf("stdout should be empty, got %q", res.stdout)
	}
}

func TestReload_PartialFailure(t *testing.T) {
	if runtime.GOOS == platform.Windows || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}
	f := newCLIFixture(t)

	// The filter cannot be rewritten, so every project that still needs
	// loading fails while App is already loaded.
	if err := os.Chmod(f.dir, 0o555); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(f.dir, 0o755) })

	res := f.run(t, "--filter", "Demo.slnf", "reload", "App")
	if code := exitCode(t, res.err); code != types.ExitReloadFailed {
		t.Fatalf("exit code = %d, want %d (err = %v)", code, types.ExitReloadFailed, res.err)
	}
	if !strings.Contains(res.stderr, reload.SummaryDependenciesOnly.Message()) {
		t.Errorf("stderr should carry the notice:\n%s", res.stderr)
	}
	if !strings.Contains(res.stdout, "Loaded 1 of 3 projects.") {
		t.Errorf("stdout:\n%s", res.stdout)
	}

	lines, err := pane.Tail(f.paneDir, reload.PaneID, 0)
	if err != nil {
		t.Fatalf("failure log not written: %v", err)
	}
	log := strings.Join(lines, "\n")
	for _, want := range []string{"# " + reload.Title, f.lib.String(), f.core.String()} {
		if !strings.Contains(log, want) {
			t.Errorf("failure log missing %q:\n%s", want, log)
		}
	}
}

func TestReload_FatalErrors(t *testing.T) {
	f := newCLIFixture(t)
	testutil.WriteManifest(t, f.dir, "Core/Core.csproj", `..\Missing\Missing.csproj`)

	tests := []struct {
		name string
		dir  string
		args []string
		want string
	}{
		{"unknown project", f.dir, []string{"reload", "Nope"}, "Project not found"},
		{"broken reference", f.dir, []string{"reload", "App"}, "Failed to read a project file"},
		{"no solution", t.TempDir(), []string{"reload", "App"}, "No solution found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, tt.dir, staticConfig{cfg: f.config()}, tt.args...)
			if code := exitCode(t, res.err); code != types.ExitFatal {
				t.Fatalf("exit code = %d, want %d (err = %v)", code, types.ExitFatal, res.err)
			}
			var svcErr *ServiceError
			if !errors.As(res.err, &svcErr) {
				t.Fatalf("expected a *ServiceError, got %v", res.err)
			}
			var out bytes.Buffer
			renderServiceError(&out, svcErr, "notty")
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("rendered issue should contain %q:\n%s", tt.want, out.String())
			}
		})
	}
}

func TestClosure_JSON(t *testing.T) {
	f := newCLIFixture(t)

	res := f.run(t, "closure", filepath.Join("App", "App.csproj"), "--format", "json")
	if res.err != nil {
		t.Fatalf("closure error = %v", res.err)
	}

	var view closureView
	if err := json.Unmarshal([]byte(res.stdout), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
	}
	if view.Root != f.app.String() {
		t.Errorf("root = %q, want %q", view.Root, f.app)
	}
	want := []string{f.lib.String(), f.core.String()}
	if strings.Join(view.Members, "|") != strings.Join(want, "|") {
		t.Errorf("members = %v, want %v", view.Members, want)
	}
	if len(view.Edges) != 2 {
		t.Errorf("edges = %v, want 2", view.Edges)
	}
}

func TestClosure_ReportsPathCaseInEffect(t *testing.T) {
	f := newCLIFixture(t)
	cfg := f.config()
	cfg.PathCase = types.PathCaseAuto

	res := runCLI(t, f.dir, staticConfig{cfg: cfg}, "closure", filepath.Join("App", "App.csproj"), "--format", "json")
	if res.err != nil {
		t.Fatalf("closure error = %v", res.err)
	}

	var view closureView
	if err := json.Unmarshal([]byte(res.stdout), &view); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, res.stdout)
	}
	if want := string(types.PathCaseAuto.ForOS(runtime.GOOS)); view.PathCase != want {
		t.Errorf("path_case = %q, want %q", view.PathCase, want)
	}
}

func TestClosure_Formats(t *testing.T) {
	f := newCLIFixture(t)

	tests := []struct {
		format string
		want   string
	}{
		{"text", filepath.Join("Lib", "Lib.csproj")},
		{"yaml", "members:"},
		{"toml", "members = ["},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			res := f.run(t, "closure", f.app.String(), "-o", tt.format)
			if res.err != nil {
				t.Fatalf("closure error = %v", res.err)
			}
			if !strings.Contains(res.stdout, tt.want) {
				t.Errorf("output should contain %q:\n%s", tt.want, res.stdout)
			}
		})
	}

	if res := f.run(t, "closure", f.app.String(), "--format", "xml"); res.err == nil {
		t.Error("unknown format should be rejected")
	}
}

func TestGraph_DependencyOrder(t *testing.T) {
	f := newCLIFixture(t)

	res := f.run(t, "graph", f.app.String(), "--format", "json")
	if res.err != nil {
		t.Fatalf("graph error = %v", res.err)
	}
	var view graphView
	if err := json.Unmarshal([]byte(res.stdout), &view); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	want := []string{f.core.String(), f.lib.String(), f.app.String()}
	if strings.Join(view.Order, "|") != strings.Join(want, "|") {
		t.Errorf("order = %v, want %v", view.Order, want)
	}
	if len(view.Cycle) != 0 {
		t.Errorf("cycle = %v, want none", view.Cycle)
	}
}

func TestGraph_Cycle(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteManifest(t, dir, "A/A.csproj", `..\B\B.csproj`)
	testutil.WriteManifest(t, dir, "B/B.csproj", `..\A\A.csproj`)

	res := runCLI(t, dir, staticConfig{cfg: config.DefaultConfig()}, "graph", a.String(), "--format", "yaml")
	if code := exitCode(t, res.err); code != types.ExitFatal {
		t.Fatalf("exit code = %d, want %d", code, types.ExitFatal)
	}
	if !strings.Contains(res.stdout, "cycle:") {
		t.Errorf("output should list the cycle:\n%s", res.stdout)
	}
	var svcErr *ServiceError
	if !errors.As(res.err, &svcErr) || classifyError(svcErr.Err) == 0 {
		t.Errorf("cycle should map to an issue, got %v", res.err)
	}
}

func TestProjects(t *testing.T) {
	f := newCLIFixture(t)

	res := f.run(t, "--filter", "Demo.slnf", "projects", "--format", "json")
	if res.err != nil {
		t.Fatalf("projects error = %v", res.err)
	}
	var view projectsView
	if err := json.Unmarshal([]byte(res.stdout), &view); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(view.Projects) != 3 {
		t.Fatalf("projects = %v", view.Projects)
	}
	loaded := map[string]bool{}
	for _, p := range view.Projects {
		loaded[p.Name] = p.Loaded
	}
	if !loaded["App"] || loaded["Lib"] || loaded["Core"] {
		t.Errorf("load state = %v, want only App loaded", loaded)
	}

	res = f.run(t, "--filter", "Demo.slnf", "projects")
	if res.err != nil {
		t.Fatalf("projects error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "{"+libGUID+"}") {
		t.Errorf("text output should list GUIDs:\n%s", res.stdout)
	}
}

func TestLog(t *testing.T) {
	f := newCLIFixture(t)

	res := f.run(t, "log")
	if res.err != nil {
		t.Fatalf("log error = %v", res.err)
	}
	if !strings.Contains(res.stdout, "No failures have been logged.") {
		t.Errorf("stdout = %q", res.stdout)
	}

	l := &pane.Log{Dir: f.paneDir}
	if err := l.WriteFailureLog(t.Context(), reload.Title, reload.PaneID, []string{"Lib", "boom", ""}); err != nil {
		t.Fatal(err)
	}

	res = f.run(t, "log", "--lines", "0")
	if res.err != nil {
		t.Fatalf("log error = %v", res.err)
	}
	for _, want := range []string{"# " + reload.Title, "Lib", "boom"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}

	res = f.run(t, "log", "--path")
	if strings.TrimSpace(res.stdout) != filepath.Join(f.paneDir, pane.FileName(reload.PaneID)) {
		t.Errorf("--path printed %q", res.stdout)
	}
}

func TestConfigDump(t *testing.T) {
	f := newCLIFixture(t)

	res := f.run(t, "config", "dump")
	if res.err != nil {
		t.Fatalf("config dump error = %v", res.err)
	}
	for _, want := range []string{`path_case: "sensitive"`, "max_file_size:", `pane_dir: "`} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("dump missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestConfig_LoadFailure(t *testing.T) {
	broken := staticConfig{err: errors.New("bad config")}

	// Without --config a broken configuration degrades to defaults.
	res := runCLI(t, t.TempDir(), broken, "config", "dump")
	if res.err != nil {
		t.Fatalf("config dump error = %v", res.err)
	}
	if !strings.Contains(res.stderr, "bad config") {
		t.Errorf("stderr should warn about the config:\n%s", res.stderr)
	}

	// An explicit --config must load.
	res = runCLI(t, t.TempDir(), broken, "--config", "custom.cue", "config", "dump")
	if code := exitCode(t, res.err); code != types.ExitFatal {
		t.Fatalf("exit code = %d, want %d", code, types.ExitFatal)
	}
}
