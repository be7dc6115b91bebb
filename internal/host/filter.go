// SPDX-License-Identifier: MPL-2.0

package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/loaddeps/loaddeps/pkg/fspath"
	"github.com/loaddeps/loaddeps/pkg/types"
)

// ErrInvalidFilter is returned for solution filters that cannot be decoded.
var ErrInvalidFilter = errors.New("invalid solution filter")

type (
	// Filter is a solution filter: the subset of a solution's projects that
	// are loaded. Project paths are relative to the solution directory.
	Filter struct {
		path     string
		pathCase types.PathCase
		doc      filterFile
		keys     map[string]bool
		dirty    bool
	}

	filterFile struct {
		Solution filterSolution `json:"solution"`
	}

	filterSolution struct {
		Path     string   `json:"path"`
		Projects []string `json:"projects"`
	}

	// FilterError reports a problem reading or writing a solution filter.
	FilterError struct {
		Path  string
		Op    string
		Cause error
	}
)

// OpenFilter reads the solution filter at path. pathCase controls how project
// paths are compared.
func OpenFilter(path string, pathCase types.PathCase) (*Filter, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &FilterError{Path: path, Op: "open", Cause: err}
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &FilterError{Path: abs, Op: "open", Cause: err}
	}

	f := &Filter{path: abs, pathCase: pathCase, keys: make(map[string]bool)}
	if err := json.Unmarshal(data, &f.doc); err != nil {
		return nil, &FilterError{Path: abs, Op: "decode", Cause: fmt.Errorf("%w: %w", ErrInvalidFilter, err)}
	}
	if f.doc.Solution.Path == "" {
		return nil, &FilterError{Path: abs, Op: "decode", Cause: fmt.Errorf("%w: solution.path is empty", ErrInvalidFilter)}
	}
	for _, p := range f.doc.Solution.Projects {
		f.keys[f.key(p)] = true
	}
	return f, nil
}

// Path returns the absolute path of the filter file.
func (f *Filter) Path() string { return f.path }

// SolutionPath returns the absolute path of the solution the filter narrows.
func (f *Filter) SolutionPath() string {
	p := fspath.FromManifestSlashes(f.doc.Solution.Path)
	if !filepath.IsAbs(p) {
		p = filepath.Join(filepath.Dir(f.path), p)
	}
	return filepath.Clean(p)
}

// Projects returns the listed project paths as written in the file.
func (f *Filter) Projects() []string { return slices.Clone(f.doc.Solution.Projects) }

// Contains reports whether the solution-relative project path is listed.
func (f *Filter) Contains(rel string) bool { return f.keys[f.key(rel)] }

// Add lists the project path. It reports whether the filter changed.
func (f *Filter) Add(rel string) bool {
	k := f.key(rel)
	if f.keys[k] {
		return false
	}
	f.keys[k] = true
	f.doc.Solution.Projects = append(f.doc.Solution.Projects, rel)
	f.dirty = true
	return true
}

// Include lists the project path and saves the filter. When the save fails
// the path is unlisted again, so the filter in memory matches the file.
func (f *Filter) Include(rel string) error {
	dirty := f.dirty
	if !f.Add(rel) {
		return f.Save()
	}
	if err := f.Save(); err != nil {
		delete(f.keys, f.key(rel))
		f.doc.Solution.Projects = f.doc.Solution.Projects[:len(f.doc.Solution.Projects)-1]
		f.dirty = dirty
		return err
	}
	return nil
}

// Save writes the filter back to disk when it changed. The file is replaced
// atomically through a temporary file in the same directory.
func (f *Filter) Save() error {
	if !f.dirty {
		return nil
	}
	if f.doc.Solution.Projects == nil {
		f.doc.Solution.Projects = []string{}
	}
	data, err := json.MarshalIndent(f.doc, "", "  ")
	if err != nil {
		return &FilterError{Path: f.path, Op: "encode", Cause: err}
	}
	data = append(data, '\n')

	if err := writeFileAtomic(f.path, data); err != nil {
		return &FilterError{Path: f.path, Op: "write", Cause: err}
	}
	f.dirty = false
	return nil
}

func (f *Filter) key(rel string) string {
	return f.pathCase.Key(filepath.Clean(fspath.FromManifestSlashes(rel)))
}

func writeFileAtomic(path string, data []byte) (err error) {
	perm := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		perm = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Error implements the error interface.
func (e *FilterError) Error() string {
	return fmt.Sprintf("%s solution filter %s: %v", e.Op, e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *FilterError) Unwrap() error { return e.Cause }
