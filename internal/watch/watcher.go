// SPDX-License-Identifier: MPL-2.0

// Package watch reruns a callback when project or solution files under a
// directory change.
//
// Events are coalesced: the callback fires once the directory has been quiet
// for the debounce period, with every changed path collected since the
// previous call.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is not set.
const DefaultDebounce = 500 * time.Millisecond

// ErrAlreadyStarted is returned by a second call to Run.
var ErrAlreadyStarted = errors.New("watch: already started")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Dir is the directory tree to watch. Empty means the working directory.
		Dir string
		// Patterns are doublestar globs, relative to Dir, selecting the files
		// that trigger OnChange. Empty means DefaultPatterns.
		Patterns []string
		// Ignore adds globs to the built-in ignore list.
		Ignore []string
		// Debounce is the quiet period before OnChange fires.
		Debounce time.Duration
		// OnChange receives the sorted changed paths, relative to Dir. Its
		// error is reported and the watch continues.
		OnChange func(ctx context.Context, changed []string) error
		// Stderr receives non-fatal watcher diagnostics. Nil means os.Stderr.
		Stderr io.Writer
	}

	// Watcher monitors a directory tree. Run may be called once.
	Watcher struct {
		fsw      *fsnotify.Watcher
		match    *matcher
		dir      string
		debounce time.Duration
		onChange func(context.Context, []string) error
		stderr   io.Writer
		started  atomic.Bool
	}
)

// New validates cfg and registers every directory under cfg.Dir that is not
// ignored.
func New(cfg Config) (*Watcher, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve directory: %w", err)
	}

	m, err := newMatcher(cfg.Patterns, cfg.Ignore)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		match:    m,
		dir:      dir,
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		stderr:   cfg.Stderr,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.stderr == nil {
		w.stderr = os.Stderr
	}

	if err := w.addTree(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Dir returns the absolute path of the watched directory.
func (w *Watcher) Dir() string { return w.dir }

// Run processes events until ctx is canceled. OnChange runs on the event loop,
// so changes made while it runs are delivered in the next batch. A canceled
// context returns nil; a watcher that can no longer deliver events returns an
// error.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			fmt.Fprintf(w.stderr, "watch: close: %v\n", err)
		}
	}()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			if rel, ok := w.accept(evt); ok {
				pending[rel] = struct{}{}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: %v\n", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			if w.onChange == nil || ctx.Err() != nil {
				continue
			}
			if err := w.onChange(ctx, changed); err != nil {
				fmt.Fprintf(w.stderr, "watch: %v\n", err)
			}
		}
	}
}

// accept extends the watch to new directories and reports the relative path
// of a relevant file event.
func (w *Watcher) accept(evt fsnotify.Event) (string, bool) {
	if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
		return "", false
	}
	rel, err := filepath.Rel(w.dir, evt.Name)
	if err != nil {
		return "", false
	}
	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if !w.match.ignored(rel, true) {
				if err := w.addTree(evt.Name); err != nil {
					fmt.Fprintf(w.stderr, "%v\n", err)
				}
			}
			return "", false
		}
	}
	return rel, w.match.wanted(rel)
}

// addTree registers root and every non-ignored directory below it.
// Unreadable directories are reported and skipped.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: skipping %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, relErr := filepath.Rel(w.dir, path); relErr == nil && rel != "." && w.match.ignored(rel, true) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}
