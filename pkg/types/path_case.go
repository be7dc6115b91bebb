// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/loaddeps/loaddeps/pkg/platform"
)

const (
	// PathCaseAuto folds case on hosts whose default filesystems are
	// case-insensitive (Windows, macOS) and compares exactly elsewhere.
	PathCaseAuto PathCase = "auto"
	// PathCaseSensitive compares manifest paths by exact string equality.
	PathCaseSensitive PathCase = "sensitive"
	// PathCaseInsensitive compares manifest paths after lower-casing them.
	PathCaseInsensitive PathCase = "insensitive"
)

// ErrInvalidPathCase is the sentinel error wrapped by InvalidPathCaseError.
var ErrInvalidPathCase = errors.New("invalid path case")

type (
	// PathCase selects how two normalized manifest paths are compared when
	// deduplicating closure members and matching them to solution projects.
	PathCase string

	// InvalidPathCaseError is returned when a PathCase value is not recognized.
	InvalidPathCaseError struct {
		Value PathCase
	}
)

// String returns the string representation of the PathCase.
func (c PathCase) String() string { return string(c) }

// Validate returns an error if the PathCase is not one of the defined values.
// The zero value is accepted and behaves like PathCaseAuto.
func (c PathCase) Validate() error {
	switch c {
	case "", PathCaseAuto, PathCaseSensitive, PathCaseInsensitive:
		return nil
	default:
		return &InvalidPathCaseError{Value: c}
	}
}

// ForOS resolves PathCaseAuto (and the zero value) to a concrete policy for
// the given GOOS value.
func (c PathCase) ForOS(goos string) PathCase {
	if c != "" && c != PathCaseAuto {
		return c
	}
	switch goos {
	case platform.Windows, platform.Darwin:
		return PathCaseInsensitive
	default:
		return PathCaseSensitive
	}
}

// Key returns the comparison key for s under this policy. Callers resolve
// PathCaseAuto with ForOS first; an unresolved auto compares exactly.
func (c PathCase) Key(s string) string {
	if c == PathCaseInsensitive {
		return strings.ToLower(s)
	}
	return s
}

// Error implements the error interface for InvalidPathCaseError.
func (e *InvalidPathCaseError) Error() string {
	return fmt.Sprintf("invalid path case %q (valid: auto, sensitive, insensitive)", e.Value)
}

// Unwrap returns ErrInvalidPathCase for errors.Is() compatibility.
func (e *InvalidPathCaseError) Unwrap() error { return ErrInvalidPathCase }
