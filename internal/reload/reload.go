// SPDX-License-Identifier: MPL-2.0

package reload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/loaddeps/loaddeps/internal/closure"
	"github.com/loaddeps/loaddeps/pkg/types"
)

// Title names the failure log pane and the failure notice.
const Title = "Load All Dependencies"

var (
	// PaneID is the fixed identifier of the failure log pane. The same pane is
	// reused by every invocation.
	PaneID = uuid.MustParse("4f0f8f59-6a43-4c63-9c1c-3c3d4f4e1d1a")

	// ErrMissingDependency is returned by New when a required capability is nil.
	ErrMissingDependency = errors.New("missing reload dependency")

	// ErrUnresolvedSelection is returned when the selected project has no
	// identity in the open solution.
	ErrUnresolvedSelection = errors.New("selected project has no identity in the solution")
)

type (
	// ProjectID is the host's identifier for a project in the open solution.
	// uuid.Nil means the project could not be resolved.
	ProjectID = uuid.UUID

	// Selection is the project currently selected in the host.
	Selection struct {
		ID       ProjectID
		Manifest types.ManifestPath
		// Name is the display name of the project. Optional.
		Name string
	}

	// SelectionSource reports the host's current single-project selection.
	// ok is false when nothing is selected.
	SelectionSource interface {
		SelectedProject(ctx context.Context) (sel Selection, ok bool, err error)
	}

	// ProjectLookup maps a manifest path to a live project identity. It returns
	// uuid.Nil without an error when the manifest is not part of the solution.
	ProjectLookup interface {
		ProjectID(ctx context.Context, manifest types.ManifestPath) (ProjectID, error)
	}

	// ReloadService reloads a project. Reloading a project that is already
	// loaded succeeds without doing anything.
	ReloadService interface {
		ReloadProject(ctx context.Context, id ProjectID) error
	}

	// ClosureResolver computes the reference closure of a manifest.
	// *closure.Resolver satisfies it.
	ClosureResolver interface {
		Resolve(ctx context.Context, start types.ManifestPath) (*closure.Closure, error)
	}

	// FailureLog appends lines to a persistent, titled log surface identified by
	// paneID and makes it visible.
	FailureLog interface {
		WriteFailureLog(ctx context.Context, title string, paneID uuid.UUID, lines []string) error
	}

	// Notifier shows a blocking failure summary to the user.
	Notifier interface {
		ShowBlockingNotice(ctx context.Context, message, title string)
	}

	// Dependencies holds the capabilities an Orchestrator needs.
	Dependencies struct {
		Selection SelectionSource
		Lookup    ProjectLookup
		Reloader  ReloadService
		Resolver  ClosureResolver
		Log       FailureLog
		Notifier  Notifier
	}

	// Orchestrator runs the bulk reload. It keeps no state between runs.
	Orchestrator struct {
		deps Dependencies
	}

	// PanicError records a panic raised by the host while reloading a project.
	PanicError struct {
		Value any
	}

	target struct {
		label    string
		id       ProjectID
		selected bool
	}
)

// New creates an Orchestrator. Every capability in deps is required.
func New(deps Dependencies) (*Orchestrator, error) {
	missing := func(name string) error {
		return fmt.Errorf("%w: %s", ErrMissingDependency, name)
	}
	switch {
	case deps.Selection == nil:
		return nil, missing("selection source")
	case deps.Lookup == nil:
		return nil, missing("project lookup")
	case deps.Reloader == nil:
		return nil, missing("reload service")
	case deps.Resolver == nil:
		return nil, missing("closure resolver")
	case deps.Log == nil:
		return nil, missing("failure log")
	case deps.Notifier == nil:
		return nil, missing("notifier")
	}
	return &Orchestrator{deps: deps}, nil
}

// Run reloads the selected project and every resolvable project in its
// reference closure.
//
// It returns (nil, nil) when nothing is selected. Selection, closure and lookup
// failures abort the run and are returned as errors. Reload failures never
// abort the run: they are recorded in the returned Report, published to the
// failure log and summarized through the Notifier.
func (o *Orchestrator) Run(ctx context.Context) (*Report, error) {
	sel, ok, err := o.deps.Selection.SelectedProject(ctx)
	if err != nil {
		return nil, fmt.Errorf("read selection: %w", err)
	}
	if !ok {
		slog.Debug("no project selected, nothing to reload")
		return nil, nil
	}

	targets, err := o.plan(ctx, sel)
	if err != nil {
		return nil, err
	}

	report := &Report{Outcomes: make([]Outcome, 0, len(targets))}
	for _, t := range targets {
		report.Outcomes = append(report.Outcomes, o.attempt(ctx, t))
	}

	if report.HasFailures() {
		o.publish(ctx, report)
	}
	return report, nil
}

// plan resolves the selection and its closure into the ordered reload list:
// the selected project first, then each distinct dependency identity in
// discovery order.
func (o *Orchestrator) plan(ctx context.Context, sel Selection) ([]target, error) {
	if sel.ID == uuid.Nil {
		id, err := o.deps.Lookup.ProjectID(ctx, sel.Manifest)
		if err != nil {
			return nil, fmt.Errorf("look up selected project %s: %w", sel.Manifest, err)
		}
		if id == uuid.Nil {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedSelection, sel.Manifest)
		}
		sel.ID = id
	}

	c, err := o.deps.Resolver.Resolve(ctx, sel.Manifest)
	if err != nil {
		return nil, err
	}

	label := sel.Name
	if label == "" {
		label = sel.Manifest.String()
	}
	targets := []target{{label: label, id: sel.ID, selected: true}}
	seen := map[ProjectID]bool{sel.ID: true}

	for _, m := range c.Paths() {
		id, err := o.deps.Lookup.ProjectID(ctx, m)
		if err != nil {
			return nil, fmt.Errorf("look up project %s: %w", m, err)
		}
		if id == uuid.Nil {
			slog.Debug("dependency not in solution, skipping", "manifest", m)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		targets = append(targets, target{label: m.String(), id: id})
	}

	slog.Debug("planned reload", "selected", sel.Manifest, "closure", c.Len(), "targets", len(targets))
	return targets, nil
}

func (o *Orchestrator) attempt(ctx context.Context, t target) (out Outcome) {
	out = Outcome{Label: t.label, ID: t.id, Selected: t.selected}
	defer func() {
		if r := recover(); r != nil {
			out.fail(&PanicError{Value: r})
		}
		if out.Err != nil {
			slog.Debug("reload failed", "project", t.label, "id", t.id, "error", out.Err)
		}
	}()

	if err := o.deps.Reloader.ReloadProject(ctx, t.id); err != nil {
		out.fail(err)
		return out
	}
	slog.Debug("reloaded project", "project", t.label, "id", t.id)
	return out
}

func (o *Orchestrator) publish(ctx context.Context, report *Report) {
	if err := o.deps.Log.WriteFailureLog(ctx, Title, PaneID, report.LogLines()); err != nil {
		slog.Warn("failed to write failure log", "pane", PaneID, "error", err)
	}
	o.deps.Notifier.ShowBlockingNotice(ctx, report.Summary().Message(), Title)
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("reload panicked: %v", e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
