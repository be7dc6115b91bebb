// SPDX-License-Identifier: MPL-2.0

package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/loaddeps/loaddeps/internal/manifest"
	"github.com/loaddeps/loaddeps/internal/reload"
	"github.com/loaddeps/loaddeps/pkg/fspath"
	"github.com/loaddeps/loaddeps/pkg/types"
)

const (
	// SolutionExt is the file extension of solution files.
	SolutionExt = ".sln"
	// FilterExt is the file extension of solution filters.
	FilterExt = ".slnf"
)

var (
	// ErrNoSolution is returned when no solution file was given or found.
	ErrNoSolution = errors.New("no solution file")

	// ErrAmbiguousSolution is returned when a directory holds more than one
	// solution file.
	ErrAmbiguousSolution = errors.New("more than one solution file")
)

type (
	// ManifestReader checks that a project manifest can be loaded.
	// *manifest.Reader satisfies it.
	ManifestReader interface {
		Read(path types.ManifestPath) (*manifest.Document, error)
	}

	// Options configures Open.
	Options struct {
		// Solution is the path to a *.sln file, or to a *.slnf filter.
		Solution string
		// Filter is the path to a *.slnf filter. Optional.
		Filter   string
		PathCase types.PathCase
		// Reader validates manifests on reload. Defaults to manifest.NewReader(0).
		Reader ManifestReader
	}

	// Workspace is an open solution. It is not safe for concurrent use.
	Workspace struct {
		solution *Solution
		filter   *Filter
		pathCase types.PathCase
		reader   ManifestReader
		byID     map[uuid.UUID]int
		byPath   map[string]int
		closed   bool
	}

	// ProjectState is a project together with its load state.
	ProjectState struct {
		Project
		Loaded bool
	}

	selectionSource struct {
		w   *Workspace
		arg string
	}
)

// FindSolution returns the single *.sln file in dir.
func FindSolution(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+SolutionExt))
	if err != nil {
		return "", err
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w in %s", ErrNoSolution, dir)
	case 1:
		return matches[0], nil
	default:
		slices.Sort(matches)
		return "", fmt.Errorf("%w in %s: %s", ErrAmbiguousSolution, dir, strings.Join(matches, ", "))
	}
}

// Open opens the solution described by opts. When only a filter is given, the
// solution it references is opened.
func Open(opts Options) (*Workspace, error) {
	pathCase := opts.PathCase
	if pathCase == "" {
		pathCase = types.PathCaseAuto
	}
	if err := pathCase.Validate(); err != nil {
		return nil, err
	}
	pathCase = pathCase.ForOS(runtime.GOOS)

	solutionPath, filterPath := opts.Solution, opts.Filter
	if strings.EqualFold(filepath.Ext(solutionPath), FilterExt) {
		if filterPath == "" {
			filterPath = solutionPath
		}
		solutionPath = ""
	}

	var filter *Filter
	if filterPath != "" {
		var err error
		if filter, err = OpenFilter(filterPath, pathCase); err != nil {
			return nil, err
		}
		if solutionPath == "" {
			solutionPath = filter.SolutionPath()
		}
	}
	if solutionPath == "" {
		return nil, ErrNoSolution
	}

	sol, err := OpenSolution(solutionPath)
	if err != nil {
		return nil, err
	}

	w := &Workspace{
		solution: sol,
		filter:   filter,
		pathCase: pathCase,
		reader:   opts.Reader,
		byID:     make(map[uuid.UUID]int, len(sol.Projects)),
		byPath:   make(map[string]int, len(sol.Projects)),
	}
	if w.reader == nil {
		w.reader = manifest.NewReader(0)
	}
	for i, p := range sol.Projects {
		if _, dup := w.byID[p.ID]; dup {
			return nil, &SolutionError{Path: sol.Path, Cause: fmt.Errorf("%w: duplicate project GUID {%s}", ErrInvalidSolution, p.ID)}
		}
		w.byID[p.ID] = i
		w.byPath[w.key(p.Manifest)] = i
	}

	slog.Debug("opened solution", "solution", sol.Path, "projects", len(sol.Projects), "filtered", filter != nil)
	return w, nil
}

// Close releases the workspace. Later operations fail with StatusClosed.
// Close is idempotent.
func (w *Workspace) Close() error {
	w.closed = true
	return nil
}

// Solution returns the open solution.
func (w *Workspace) Solution() *Solution { return w.solution }

// Filter returns the solution filter, or nil when the whole solution is loaded.
func (w *Workspace) Filter() *Filter { return w.filter }

// PathCase returns the concrete path comparison policy in effect.
func (w *Workspace) PathCase() types.PathCase { return w.pathCase }

// Project returns the project with the given identity.
func (w *Workspace) Project(id uuid.UUID) (Project, bool) {
	i, ok := w.byID[id]
	if !ok {
		return Project{}, false
	}
	return w.solution.Projects[i], true
}

// FindProject resolves a project reference given by name (case-insensitive)
// or by manifest path.
func (w *Workspace) FindProject(ref string) (Project, bool) {
	for _, p := range w.solution.Projects {
		if strings.EqualFold(p.Name, ref) {
			return p, true
		}
	}
	path, err := fspath.Manifest(ref)
	if err != nil {
		return Project{}, false
	}
	i, ok := w.byPath[w.key(path)]
	if !ok {
		return Project{}, false
	}
	return w.solution.Projects[i], true
}

// IsLoaded reports whether the project is loaded.
func (w *Workspace) IsLoaded(id uuid.UUID) bool {
	p, ok := w.Project(id)
	if !ok {
		return false
	}
	return w.filter == nil || w.filter.Contains(p.RelPath)
}

// Projects lists every project of the solution with its load state.
func (w *Workspace) Projects() []ProjectState {
	out := make([]ProjectState, len(w.solution.Projects))
	for i, p := range w.solution.Projects {
		out[i] = ProjectState{Project: p, Loaded: w.IsLoaded(p.ID)}
	}
	return out
}

// ProjectID maps a manifest path to the identity of the solution project that
// owns it, or uuid.Nil when no project does.
func (w *Workspace) ProjectID(_ context.Context, path types.ManifestPath) (reload.ProjectID, error) {
	if w.closed {
		return uuid.Nil, CheckStatus(StatusClosed, uuid.Nil, nil)
	}
	i, ok := w.byPath[w.key(path)]
	if !ok {
		return uuid.Nil, nil
	}
	return w.solution.Projects[i].ID, nil
}

// ReloadProject loads the project into the workspace. Reloading a loaded
// project succeeds without changes.
func (w *Workspace) ReloadProject(_ context.Context, id reload.ProjectID) error {
	status, cause := w.reload(id)
	return CheckStatus(status, id, cause)
}

func (w *Workspace) reload(id uuid.UUID) (Status, error) {
	if w.closed {
		return StatusClosed, nil
	}
	p, ok := w.Project(id)
	if !ok {
		return StatusProjectNotFound, nil
	}
	if w.IsLoaded(id) {
		slog.Debug("project already loaded", "project", p.Name)
		return StatusOK, nil
	}
	if _, err := w.reader.Read(p.Manifest); err != nil {
		return StatusManifestUnavailable, err
	}

	if err := w.filter.Include(p.RelPath); err != nil {
		return StatusFilterWriteFailed, err
	}
	slog.Info("reloaded project", "project", p.Name, "filter", w.filter.Path())
	return StatusOK, nil
}

// Selection returns a SelectionSource for a project named on the command
// line. An empty arg selects nothing.
func (w *Workspace) Selection(arg string) reload.SelectionSource {
	return &selectionSource{w: w, arg: strings.TrimSpace(arg)}
}

func (s *selectionSource) SelectedProject(context.Context) (reload.Selection, bool, error) {
	if s.arg == "" {
		return reload.Selection{}, false, nil
	}
	if s.w.closed {
		return reload.Selection{}, false, CheckStatus(StatusClosed, uuid.Nil, nil)
	}
	p, ok := s.w.FindProject(s.arg)
	if !ok {
		return reload.Selection{}, false, CheckStatus(StatusProjectNotFound, uuid.Nil, fmt.Errorf("no project named or located at %q", s.arg))
	}
	return reload.Selection{ID: p.ID, Manifest: p.Manifest, Name: p.Name}, true, nil
}

func (w *Workspace) key(p types.ManifestPath) string {
	return w.pathCase.Key(string(p))
}

// IsNotExist reports whether err was caused by a missing solution or filter file.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, ErrNoSolution)
}
