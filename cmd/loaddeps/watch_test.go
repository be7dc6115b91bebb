// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/loaddeps/loaddeps/pkg/types"
)

// cancelOnWrite cancels a context once the output mentions marker.
type cancelOnWrite struct {
	strings.Builder
	marker string
	cancel context.CancelFunc
}

func (c *cancelOnWrite) Write(p []byte) (int, error) {
	n, err := c.Builder.Write(p)
	if strings.Contains(c.String(), c.marker) {
		c.cancel()
	}
	return n, err
}

func TestWatch_ReloadsBeforeWatching(t *testing.T) {
	f := newCLIFixture(t)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	stdout := &cancelOnWrite{marker: "Watching", cancel: cancel}
	var stderr strings.Builder

	app, err := NewApp(Dependencies{Config: staticConfig{cfg: f.config()}, Stdout: stdout, Stderr: &stderr, WorkDir: f.dir})
	if err != nil {
		t.Fatal(err)
	}
	root := newRootCommand(app)
	root.SetArgs([]string{"--filter", "Demo.slnf", "watch", "App"})

	if err := root.ExecuteContext(ctx); err != nil {
		t.Fatalf("watch error = %v\nstderr:\n%s", err, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Loaded 3 of 3 projects.") {
		t.Errorf("stdout missing the first reload report:\n%s", stdout.String())
	}
}

func TestWatch_RequiresProject(t *testing.T) {
	f := newCLIFixture(t)

	if res := f.run(t, "watch"); res.err == nil {
		t.Fatal("watch without a project succeeded")
	}
}

func TestWatch_MissingSolution(t *testing.T) {
	res := runCLI(t, t.TempDir(), staticConfig{cfg: newCLIFixture(t).config()}, "watch", "App")
	if code := exitCode(t, res.err); code != types.ExitFatal {
		t.Fatalf("exit code = %d, want %d (err = %v)", code, types.ExitFatal, res.err)
	}
}

func TestReloadRound(t *testing.T) {
	app, err := NewApp(Dependencies{Config: staticConfig{}, Stdout: &strings.Builder{}, Stderr: &strings.Builder{}, WorkDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	if err := app.reloadRound(t.Context(), ""); err != nil {
		t.Errorf("reloadRound() with no selection error = %v", err)
	}

	// No solution in the working directory is fatal and ends the watch.
	err = app.reloadRound(t.Context(), "App")
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != types.ExitFatal {
		t.Errorf("reloadRound() error = %v, want fatal ExitError", err)
	}
}
