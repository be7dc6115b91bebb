// SPDX-License-Identifier: MPL-2.0

package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/loaddeps/loaddeps/pkg/fspath"
	"github.com/loaddeps/loaddeps/pkg/types"
)

const solutionHeader = "Microsoft Visual Studio Solution File"

var (
	// SolutionFolderType is the project-type GUID of virtual solution folders,
	// which are not projects and are skipped.
	SolutionFolderType = uuid.MustParse("2150E333-8FDC-42A3-9474-1A3956D46DE8")

	// ErrInvalidSolution is returned for files that are not solution files or
	// contain malformed project entries.
	ErrInvalidSolution = errors.New("invalid solution file")

	projectLine = regexp.MustCompile(`^Project\("\{([0-9A-Fa-f-]{36})\}"\)\s*=\s*"([^"]*)"\s*,\s*"([^"]*)"\s*,\s*"\{([0-9A-Fa-f-]{36})\}"`)
)

type (
	// Project is one project entry of a solution.
	Project struct {
		Name string
		ID   uuid.UUID
		Type uuid.UUID
		// RelPath is the manifest path as written in the solution file.
		RelPath  string
		Manifest types.ManifestPath
	}

	// Solution is a parsed solution file.
	Solution struct {
		Path     string
		Projects []Project
	}

	// SolutionError reports a problem with a solution file.
	SolutionError struct {
		Path  string
		Line  int
		Cause error
	}
)

// OpenSolution reads and parses the solution file at path.
func OpenSolution(path string) (*Solution, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &SolutionError{Path: path, Cause: err}
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, &SolutionError{Path: abs, Cause: err}
	}
	defer f.Close()

	return ParseSolution(abs, f)
}

// ParseSolution parses solution text read from r. path must be absolute; it
// anchors the relative project paths.
func ParseSolution(path string, r io.Reader) (*Solution, error) {
	sol := &Solution{Path: path}
	dir := types.FilesystemPath(filepath.Dir(path))

	sc := bufio.NewScanner(r)
	lineNo := 0
	sawHeader := false
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if strings.HasPrefix(line, solutionHeader) {
			sawHeader = true
			continue
		}
		if !strings.HasPrefix(line, "Project(") {
			continue
		}

		m := projectLine.FindStringSubmatch(line)
		if m == nil {
			return nil, &SolutionError{Path: path, Line: lineNo, Cause: fmt.Errorf("%w: malformed project entry", ErrInvalidSolution)}
		}
		typeID, err := uuid.Parse(m[1])
		if err != nil {
			return nil, &SolutionError{Path: path, Line: lineNo, Cause: err}
		}
		if typeID == SolutionFolderType {
			continue
		}
		id, err := uuid.Parse(m[4])
		if err != nil {
			return nil, &SolutionError{Path: path, Line: lineNo, Cause: err}
		}
		if strings.Contains(m[3], "://") {
			// Web site projects are addressed by URL and have no manifest.
			continue
		}
		manifest, err := fspath.ResolveReference(dir, m[3])
		if err != nil {
			return nil, &SolutionError{Path: path, Line: lineNo, Cause: err}
		}
		sol.Projects = append(sol.Projects, Project{
			Name:     m[2],
			ID:       id,
			Type:     typeID,
			RelPath:  m[3],
			Manifest: manifest,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &SolutionError{Path: path, Cause: err}
	}
	if !sawHeader {
		return nil, &SolutionError{Path: path, Cause: fmt.Errorf("%w: missing %q header", ErrInvalidSolution, solutionHeader)}
	}
	return sol, nil
}

// Dir returns the directory containing the solution file.
func (s *Solution) Dir() string { return filepath.Dir(s.Path) }

// Error implements the error interface.
func (e *SolutionError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("solution %s (line %d): %v", e.Path, e.Line, e.Cause)
	}
	return fmt.Sprintf("solution %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *SolutionError) Unwrap() error { return e.Cause }
