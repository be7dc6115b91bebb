// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// DefaultPatterns select the files whose edits can change a reference
	// closure. Solution filters are left out because every reload rewrites one.
	DefaultPatterns = []string{"**/*.csproj", "**/*.sln"}

	// defaultIgnores are build outputs and tool state that never hold a
	// manifest the user edits.
	defaultIgnores = []string{
		"**/.git/**",
		"**/.vs/**",
		"**/bin/**",
		"**/obj/**",
		"**/node_modules/**",
		"**/*~",
		"**/*.swp",
	}
)

// matcher decides which paths under the watched directory are relevant.
type matcher struct {
	patterns []string
	ignores  []string
}

func newMatcher(patterns, ignore []string) (*matcher, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	for _, pat := range slices.Concat(patterns, ignore) {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid pattern %q: %w", pat, doublestar.ErrBadPattern)
		}
	}
	return &matcher{
		patterns: slices.Clone(patterns),
		ignores:  slices.Concat(defaultIgnores, ignore),
	}, nil
}

// ignored reports whether rel, relative to the watched directory, is excluded.
// Directories are also tested with a trailing separator so "**/obj/**" prunes
// the obj directory itself.
func (m *matcher) ignored(rel string, isDir bool) bool {
	p := filepath.ToSlash(rel)
	if matchAny(m.ignores, p) {
		return true
	}
	return isDir && matchAny(m.ignores, p+"/")
}

// wanted reports whether a change to rel should trigger a reload.
func (m *matcher) wanted(rel string) bool {
	p := filepath.ToSlash(rel)
	return !matchAny(m.ignores, p) && matchAny(m.patterns, p)
}

func matchAny(patterns []string, p string) bool {
	for _, pat := range patterns {
		if ok, err := doublestar.Match(pat, p); err == nil && ok {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string { return slices.Clone(defaultIgnores) }
