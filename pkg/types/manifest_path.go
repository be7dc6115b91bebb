// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrInvalidManifestPath is the sentinel error wrapped by InvalidManifestPathError.
var ErrInvalidManifestPath = errors.New("invalid manifest path")

type (
	// ManifestPath is the absolute, cleaned filesystem path of a project manifest
	// (e.g. a .csproj file). It is the identity key of a closure member, compared
	// by exact string equality unless a case-folding policy says otherwise.
	ManifestPath string

	// InvalidManifestPathError is returned when a ManifestPath is empty,
	// whitespace-only, relative, or not in cleaned form.
	InvalidManifestPathError struct {
		Value  ManifestPath
		Reason string
	}
)

// String returns the string representation of the ManifestPath.
func (p ManifestPath) String() string { return string(p) }

// Validate returns an error unless the path is non-empty, absolute and clean.
func (p ManifestPath) Validate() error {
	s := string(p)
	switch {
	case strings.TrimSpace(s) == "":
		return &InvalidManifestPathError{Value: p, Reason: "must be non-empty"}
	case !filepath.IsAbs(s):
		return &InvalidManifestPathError{Value: p, Reason: "must be absolute"}
	case filepath.Clean(s) != s:
		return &InvalidManifestPathError{Value: p, Reason: "must not contain relative segments"}
	}
	return nil
}

// Dir returns the directory that contains the manifest. Relative references
// declared inside the manifest are resolved against it.
func (p ManifestPath) Dir() FilesystemPath {
	return FilesystemPath(filepath.Dir(string(p)))
}

// Base returns the manifest file name (e.g. "App.csproj").
func (p ManifestPath) Base() string {
	return filepath.Base(string(p))
}

// Error implements the error interface for InvalidManifestPathError.
func (e *InvalidManifestPathError) Error() string {
	return fmt.Sprintf("invalid manifest path %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidManifestPath for errors.Is() compatibility.
func (e *InvalidManifestPathError) Unwrap() error { return ErrInvalidManifestPath }
