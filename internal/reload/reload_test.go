// SPDX-License-Identifier: MPL-2.0

package reload

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/loaddeps/loaddeps/internal/closure"
	"github.com/loaddeps/loaddeps/internal/manifest"
	"github.com/loaddeps/loaddeps/pkg/types"
)

type (
	fakeSelection struct {
		sel Selection
		ok  bool
		err error
	}

	fakeLookup struct {
		ids map[types.ManifestPath]ProjectID
		err error
	}

	fakeReloader struct {
		fail   map[ProjectID]error
		panics map[ProjectID]any
		calls  []ProjectID
	}

	fakeReader struct {
		docs map[types.ManifestPath][]string
	}

	fakeResolver struct {
		err error
	}

	fakeLog struct {
		title  string
		paneID uuid.UUID
		lines  []string
		calls  int
		err    error
	}

	fakeNotifier struct {
		messages []string
		titles   []string
	}

	fixture struct {
		app, lib, core, tools types.ManifestPath
		appID, libID, coreID  ProjectID

		selection *fakeSelection
		lookup    *fakeLookup
		reloader  *fakeReloader
		log       *fakeLog
		notifier  *fakeNotifier
		reader    *fakeReader
		resolver  ClosureResolver
	}
)

func (f *fakeSelection) SelectedProject(context.Context) (Selection, bool, error) {
	return f.sel, f.ok, f.err
}

func (f *fakeLookup) ProjectID(_ context.Context, m types.ManifestPath) (ProjectID, error) {
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return f.ids[m], nil
}

func (f *fakeReloader) ReloadProject(_ context.Context, id ProjectID) error {
	f.calls = append(f.calls, id)
	if v, ok := f.panics[id]; ok {
		panic(v)
	}
	return f.fail[id]
}

func (f *fakeReader) Read(path types.ManifestPath) (*manifest.Document, error) {
	includes, ok := f.docs[path]
	if !ok {
		return nil, &manifest.ParseError{Path: path, Cause: errors.New("file does not exist")}
	}
	doc := &manifest.Document{Path: path, Root: "Project"}
	for _, inc := range includes {
		doc.References = append(doc.References, manifest.Reference{Include: inc})
	}
	return doc, nil
}

func (f *fakeResolver) Resolve(context.Context, types.ManifestPath) (*closure.Closure, error) {
	return nil, f.err
}

func (f *fakeLog) WriteFailureLog(_ context.Context, title string, paneID uuid.UUID, lines []string) error {
	f.calls++
	f.title = title
	f.paneID = paneID
	f.lines = append(f.lines, lines...)
	return f.err
}

func (f *fakeNotifier) ShowBlockingNotice(_ context.Context, message, title string) {
	f.messages = append(f.messages, message)
	f.titles = append(f.titles, title)
}

// newFixture builds App -> {Lib, Tools}, Lib -> Core, where Tools is not part
// of the solution.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	root, err := filepath.Abs(filepath.FromSlash("/solution"))
	if err != nil {
		t.Fatal(err)
	}
	mp := func(parts ...string) types.ManifestPath {
		return types.ManifestPath(filepath.Join(append([]string{root}, parts...)...))
	}

	f := &fixture{
		app:    mp("App", "App.csproj"),
		lib:    mp("Lib", "Lib.csproj"),
		core:   mp("Core", "Core.csproj"),
		tools:  mp("Tools", "Tools.csproj"),
		appID:  uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		libID:  uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		coreID: uuid.MustParse("33333333-3333-3333-3333-333333333333"),
	}

	f.reader = &fakeReader{docs: map[types.ManifestPath][]string{
		f.app:   {"../Lib/Lib.csproj", "../Tools/Tools.csproj"},
		f.lib:   {"../Core/Core.csproj"},
		f.core:  nil,
		f.tools: nil,
	}}
	f.resolver = closure.NewResolver(closure.WithReader(f.reader), closure.WithPathCase(types.PathCaseSensitive))

	f.selection = &fakeSelection{sel: Selection{ID: f.appID, Manifest: f.app, Name: "App"}, ok: true}
	f.lookup = &fakeLookup{ids: map[types.ManifestPath]ProjectID{
		f.app:  f.appID,
		f.lib:  f.libID,
		f.core: f.coreID,
	}}
	f.reloader = &fakeReloader{fail: map[ProjectID]error{}, panics: map[ProjectID]any{}}
	f.log = &fakeLog{}
	f.notifier = &fakeNotifier{}
	return f
}

func (f *fixture) orchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	o, err := New(Dependencies{
		Selection: f.selection,
		Lookup:    f.lookup,
		Reloader:  f.reloader,
		Resolver:  f.resolver,
		Log:       f.log,
		Notifier:  f.notifier,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func (f *fixture) run(t *testing.T) *Report {
	t.Helper()
	report, err := f.orchestrator(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return report
}

func TestRun_NoSelection(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.selection.ok = false

	report, err := f.orchestrator(t).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report != nil {
		t.Errorf("Run() report = %+v, want nil", report)
	}
	if len(f.reloader.calls) != 0 {
		t.Errorf("reload attempts = %v, want none", f.reloader.calls)
	}
	if f.log.calls != 0 || len(f.notifier.messages) != 0 {
		t.Error("no-op run must not publish anything")
	}
}

func TestRun_AllSucceed(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	report := f.run(t)

	want := []ProjectID{f.appID, f.libID, f.coreID}
	if !slices.Equal(f.reloader.calls, want) {
		t.Errorf("reload order = %v, want %v", f.reloader.calls, want)
	}
	if report.HasFailures() {
		t.Errorf("Failures() = %+v, want none", report.Failures())
	}
	if len(report.Outcomes) != 3 {
		t.Errorf("len(Outcomes) = %d, want 3", len(report.Outcomes))
	}
	if !report.Outcomes[0].Selected || report.Outcomes[0].Label != "App" {
		t.Errorf("first outcome = %+v, want selected App", report.Outcomes[0])
	}
	if f.log.calls != 0 || len(f.notifier.messages) != 0 {
		t.Error("successful run must not publish anything")
	}
}

func TestRun_UnresolvedDependencyIsSkipped(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	// Tools resolves to uuid.Nil in the default fixture; also drop Core.
	delete(f.lookup.ids, f.core)
	f.reloader.fail[uuid.Nil] = errors.New("must never be called with uuid.Nil")

	report := f.run(t)

	if !slices.Equal(f.reloader.calls, []ProjectID{f.appID, f.libID}) {
		t.Errorf("reload attempts = %v, want App then Lib", f.reloader.calls)
	}
	if report.HasFailures() {
		t.Errorf("Failures() = %+v, want none", report.Failures())
	}
}

func TestRun_SelectedOnlyFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.reloader.fail[f.appID] = errors.New("project file is locked")

	report := f.run(t)

	failures := report.Failures()
	if len(failures) != 1 || failures[0].ID != f.appID {
		t.Fatalf("Failures() = %+v, want exactly the selected project", failures)
	}
	if got := report.Summary(); got != SummarySelectedOnly {
		t.Errorf("Summary() = %v, want %v", got, SummarySelectedOnly)
	}
	if !slices.Equal(f.reloader.calls, []ProjectID{f.appID, f.libID, f.coreID}) {
		t.Errorf("dependencies must still be attempted, got %v", f.reloader.calls)
	}
	if len(f.notifier.messages) != 1 || f.notifier.messages[0] != SummarySelectedOnly.Message() {
		t.Errorf("notices = %v", f.notifier.messages)
	}
	if f.notifier.titles[0] != Title {
		t.Errorf("notice title = %q, want %q", f.notifier.titles[0], Title)
	}
}

func TestRun_DependencyOnlyFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.reloader.fail[f.coreID] = errors.New("manifest missing")

	report := f.run(t)

	failures := report.Failures()
	if len(failures) != 1 || failures[0].Label != string(f.core) {
		t.Fatalf("Failures() = %+v, want exactly Core", failures)
	}
	if got := report.Summary(); got != SummaryDependenciesOnly {
		t.Errorf("Summary() = %v, want %v", got, SummaryDependenciesOnly)
	}
}

func TestRun_SelectedAndDependencyFailure(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.reloader.fail[f.appID] = errors.New("a")
	f.reloader.fail[f.libID] = errors.New("b")

	report := f.run(t)

	if got := report.Summary(); got != SummarySelectedAndDependencies {
		t.Errorf("Summary() = %v, want %v", got, SummarySelectedAndDependencies)
	}
	if len(report.Failures()) != 2 {
		t.Errorf("len(Failures()) = %d, want 2", len(report.Failures()))
	}
}

func TestRun_PublishesFailureLog(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.reloader.fail[f.libID] = errors.New("reload rejected")

	f.run(t)

	if f.log.calls != 1 {
		t.Fatalf("WriteFailureLog calls = %d, want 1", f.log.calls)
	}
	if f.log.title != Title || f.log.paneID != PaneID {
		t.Errorf("pane = (%q, %s), want (%q, %s)", f.log.title, f.log.paneID, Title, PaneID)
	}
	want := []string{string(f.lib), "reload rejected", ""}
	if !slices.Equal(f.log.lines, want) {
		t.Errorf("log lines = %q, want %q", f.log.lines, want)
	}
}

func TestRun_LogWriteFailureStillNotifies(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.reloader.fail[f.libID] = errors.New("boom")
	f.log.err = errors.New("disk full")

	report := f.run(t)

	if !report.HasFailures() {
		t.Fatal("expected failures")
	}
	if len(f.notifier.messages) != 1 {
		t.Errorf("notices = %d, want 1", len(f.notifier.messages))
	}
}

func TestRun_PanicIsIsolated(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.reloader.panics[f.libID] = "hierarchy released twice"

	report := f.run(t)

	if !slices.Equal(f.reloader.calls, []ProjectID{f.appID, f.libID, f.coreID}) {
		t.Errorf("reload attempts = %v, Core must be attempted after the panic", f.reloader.calls)
	}
	failures := report.Failures()
	if len(failures) != 1 {
		t.Fatalf("Failures() = %+v, want one", failures)
	}
	var panicErr *PanicError
	if !errors.As(failures[0].Err, &panicErr) {
		t.Errorf("failure error = %T, want *PanicError", failures[0].Err)
	}
	if failures[0].Detail != "reload panicked: hierarchy released twice" {
		t.Errorf("Detail = %q", failures[0].Detail)
	}
}

func TestRun_DuplicateIdentityReloadedOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.lookup.ids[f.core] = f.libID
	f.lookup.ids[f.tools] = f.appID

	f.run(t)

	if !slices.Equal(f.reloader.calls, []ProjectID{f.appID, f.libID}) {
		t.Errorf("reload attempts = %v, want each identity once", f.reloader.calls)
	}
}

func TestRun_ClosureErrorPropagates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	delete(f.reader.docs, f.core)

	report, err := f.orchestrator(t).Run(context.Background())
	if !closure.IsParseError(err) {
		t.Fatalf("Run() error = %v, want parse error", err)
	}
	if report != nil {
		t.Errorf("Run() report = %+v, want nil", report)
	}
	if len(f.reloader.calls) != 0 {
		t.Errorf("reload attempts = %v, want none", f.reloader.calls)
	}
}

func TestRun_CapabilityErrorsPropagate(t *testing.T) {
	t.Parallel()

	hostErr := errors.New("solution closed")

	tests := []struct {
		name  string
		setup func(*fixture)
	}{
		{"selection", func(f *fixture) { f.selection.err = hostErr }},
		{"lookup", func(f *fixture) { f.lookup.err = hostErr }},
		{"resolver", func(f *fixture) { f.resolver = &fakeResolver{err: hostErr} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)
			tt.setup(f)

			_, err := f.orchestrator(t).Run(context.Background())
			if !errors.Is(err, hostErr) {
				t.Fatalf("Run() error = %v, want %v", err, hostErr)
			}
			if len(f.reloader.calls) != 0 {
				t.Errorf("reload attempts = %v, want none", f.reloader.calls)
			}
		})
	}
}

func TestRun_SelectionWithoutIdentity(t *testing.T) {
	t.Parallel()

	t.Run("looked up from manifest", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.selection.sel.ID = uuid.Nil
		f.run(t)

		if len(f.reloader.calls) == 0 || f.reloader.calls[0] != f.appID {
			t.Errorf("reload attempts = %v, want App first", f.reloader.calls)
		}
	})

	t.Run("not in solution", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t)
		f.selection.sel.ID = uuid.Nil
		delete(f.lookup.ids, f.app)

		_, err := f.orchestrator(t).Run(context.Background())
		if !errors.Is(err, ErrUnresolvedSelection) {
			t.Fatalf("Run() error = %v, want ErrUnresolvedSelection", err)
		}
	})
}

func TestNew_MissingDependency(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	full := Dependencies{
		Selection: f.selection,
		Lookup:    f.lookup,
		Reloader:  f.reloader,
		Resolver:  f.resolver,
		Log:       f.log,
		Notifier:  f.notifier,
	}

	tests := []struct {
		name  string
		clear func(*Dependencies)
	}{
		{"selection", func(d *Dependencies) { d.Selection = nil }},
		{"lookup", func(d *Dependencies) { d.Lookup = nil }},
		{"reloader", func(d *Dependencies) { d.Reloader = nil }},
		{"resolver", func(d *Dependencies) { d.Resolver = nil }},
		{"log", func(d *Dependencies) { d.Log = nil }},
		{"notifier", func(d *Dependencies) { d.Notifier = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			deps := full
			tt.clear(&deps)
			if _, err := New(deps); !errors.Is(err, ErrMissingDependency) {
				t.Errorf("New() error = %v, want ErrMissingDependency", err)
			}
		})
	}
}

// Not parallel: it swaps the default slog logger.
func TestRun_FailuresAreNotLoggedOneByOne(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	f := newFixture(t)
	f.reloader.fail[f.libID] = errors.New("manifest missing")
	f.reloader.fail[f.coreID] = errors.New("manifest missing")

	report := f.run(t)

	if len(report.Failures()) != 2 {
		t.Fatalf("len(Failures()) = %d, want 2", len(report.Failures()))
	}
	if buf.Len() != 0 {
		t.Errorf("failures reached the warning log:\n%s", buf.String())
	}
	if len(f.notifier.messages) != 1 {
		t.Errorf("notices = %v, want one combined notice", f.notifier.messages)
	}
}
