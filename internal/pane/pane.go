// SPDX-License-Identifier: MPL-2.0

// Package pane implements persistent, titled output panes backed by log files.
//
// A pane is identified by a fixed UUID and lives at <dir>/<id>.log. The file
// is created with a title header on first use and appended to afterwards, so
// every invocation that writes to the same pane ID shares one history.
package pane

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	logExt     = ".log"
	headerMark = "# "
)

// ErrReleased is returned when writing to a released pane.
var ErrReleased = errors.New("pane released")

type (
	// Pane is an acquired output pane. Release must be called once the
	// caller is done writing; it is safe to call more than once.
	Pane struct {
		id    uuid.UUID
		title string
		path  string

		mu   sync.Mutex
		file *os.File
		now  func() time.Time
	}

	// Log writes failure logs to panes under Dir.
	Log struct {
		Dir string
		// Echo, when set, is told where each block was written.
		Echo io.Writer
	}
)

// FileName returns the file name of the pane with the given ID.
func FileName(id uuid.UUID) string { return id.String() + logExt }

// Acquire opens the pane id under dir, creating the directory and the file
// (with a title header) if needed.
func Acquire(dir string, id uuid.UUID, title string) (*Pane, error) {
	if id == uuid.Nil {
		return nil, errors.New("pane id must not be nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pane directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, FileName(id))
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open pane %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat pane %s: %w", path, err)
	}
	if info.Size() == 0 {
		if _, err := fmt.Fprintf(file, "%s%s\n", headerMark, title); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write pane header %s: %w", path, err)
		}
		slog.Debug("created output pane", "pane", id, "path", path)
	}

	return &Pane{id: id, title: title, path: path, file: file, now: time.Now}, nil
}

// ID returns the pane identifier.
func (p *Pane) ID() uuid.UUID { return p.id }

// Title returns the pane title.
func (p *Pane) Title() string { return p.title }

// Path returns the backing file path.
func (p *Pane) Path() string { return p.path }

// Write appends lines as one block, preceded by a timestamp line.
func (p *Pane) Write(lines []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return ErrReleased
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n[%s]\n", p.now().Format(time.RFC3339))
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	if _, err := io.WriteString(p.file, sb.String()); err != nil {
		return fmt.Errorf("write pane %s: %w", p.path, err)
	}
	return nil
}

// Release closes the pane. Subsequent calls do nothing.
func (p *Pane) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.file == nil {
		return nil
	}
	err := p.file.Close()
	p.file = nil
	return err
}

// Tail returns the last n lines of the pane id under dir. n <= 0 returns every
// line. A pane that was never written yields os.ErrNotExist.
func Tail(dir string, id uuid.UUID, n int) ([]string, error) {
	path := filepath.Join(dir, FileName(id))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if n > 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read pane %s: %w", path, err)
	}
	return lines, nil
}

// WriteFailureLog appends lines to the pane and releases it before returning.
func (l *Log) WriteFailureLog(_ context.Context, title string, paneID uuid.UUID, lines []string) (err error) {
	p, err := Acquire(l.Dir, paneID, title)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := p.Release(); relErr != nil && err == nil {
			err = relErr
		}
	}()

	if err := p.Write(lines); err != nil {
		return err
	}
	if l.Echo != nil {
		fmt.Fprintf(l.Echo, "%s (%s)\n", title, p.Path())
	}
	return nil
}
