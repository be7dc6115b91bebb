// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/loaddeps/loaddeps/pkg/platform"
)

// MustMkdirAll creates a directory along with any necessary parents.
// The test fails immediately if the operation fails.
func MustMkdirAll(t testing.TB, path string, perm os.FileMode) {
	t.Helper()
	if err := os.MkdirAll(path, perm); err != nil {
		t.Fatalf("failed to create directory %s: %v", path, err)
	}
}

// MustWriteFile writes content to path, creating parent directories.
// The test fails immediately if the operation fails.
func MustWriteFile(t testing.TB, path, content string) {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// SetHomeDir points the user home directory at dir for the rest of the test
// and clears the XDG and AppData variables that would take precedence over it.
// Like t.Setenv it cannot be used in parallel tests.
func SetHomeDir(t *testing.T, dir string) {
	t.Helper()
	if runtime.GOOS == platform.Windows {
		t.Setenv("USERPROFILE", dir)
		t.Setenv("APPDATA", "")
		t.Setenv("LOCALAPPDATA", "")
		return
	}
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
}
