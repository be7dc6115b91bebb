// SPDX-License-Identifier: MPL-2.0

// Package fspath provides typed wrappers around path/filepath functions that
// accept and return types.FilesystemPath and types.ManifestPath, plus the
// normalization rules used to turn a manifest's reference Include value into
// the absolute ManifestPath that identifies the referenced project.
package fspath

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/loaddeps/loaddeps/pkg/types"
)

// JoinStr wraps filepath.Join, accepting a typed base path and raw string
// segments.
func JoinStr(base types.FilesystemPath, elem ...string) types.FilesystemPath {
	parts := make([]string, 1, 1+len(elem))
	parts[0] = string(base)
	parts = append(parts, elem...)
	return types.FilesystemPath(filepath.Join(parts...))
}

// Dir wraps filepath.Dir for FilesystemPath.
func Dir(p types.FilesystemPath) types.FilesystemPath {
	return types.FilesystemPath(filepath.Dir(string(p)))
}

// Abs wraps filepath.Abs for FilesystemPath. Returns an error if the
// underlying OS call fails.
func Abs(p types.FilesystemPath) (types.FilesystemPath, error) {
	abs, err := filepath.Abs(string(p))
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}
	return types.FilesystemPath(abs), nil
}

// IsAbs wraps filepath.IsAbs for FilesystemPath.
func IsAbs(p types.FilesystemPath) bool {
	return filepath.IsAbs(string(p))
}

// FromManifestSlashes converts the separators of a path written inside a
// manifest or solution file to the host separator. Project files authored on
// Windows use backslashes, which filepath treats as ordinary characters on
// POSIX hosts.
func FromManifestSlashes(p string) string {
	if filepath.Separator == '\\' {
		return filepath.FromSlash(p)
	}
	return strings.ReplaceAll(p, `\`, "/")
}

// Manifest normalizes an arbitrary manifest path (absolute or relative to the
// working directory) into an absolute, cleaned ManifestPath.
func Manifest(p string) (types.ManifestPath, error) {
	if strings.TrimSpace(p) == "" {
		return "", &types.InvalidManifestPathError{Value: types.ManifestPath(p), Reason: "must be non-empty"}
	}
	abs, err := filepath.Abs(FromManifestSlashes(p))
	if err != nil {
		return "", fmt.Errorf("resolving manifest path %q: %w", p, err)
	}
	return types.ManifestPath(filepath.Clean(abs)), nil
}

// ResolveReference resolves a reference Include value against the directory
// of the manifest that declared it. Absolute Include values are kept as-is;
// relative ones are joined to dir. The result is absolute and contains no
// "." or ".." segments.
func ResolveReference(dir types.FilesystemPath, include string) (types.ManifestPath, error) {
	include = FromManifestSlashes(strings.TrimSpace(include))
	if include == "" {
		return "", &types.InvalidManifestPathError{Value: "", Reason: "reference Include is empty"}
	}
	if !filepath.IsAbs(include) {
		include = filepath.Join(string(dir), include)
	}
	return Manifest(include)
}
