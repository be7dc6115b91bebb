// SPDX-License-Identifier: MPL-2.0

package closure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"strings"

	"github.com/loaddeps/loaddeps/internal/dag"
	"github.com/loaddeps/loaddeps/internal/manifest"
	"github.com/loaddeps/loaddeps/pkg/fspath"
	"github.com/loaddeps/loaddeps/pkg/types"
)

type (
	// ManifestReader parses a single manifest. *manifest.Reader satisfies it.
	ManifestReader interface {
		Read(path types.ManifestPath) (*manifest.Document, error)
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// Resolver walks project references. A Resolver holds no per-walk state and
	// may be reused; every Resolve call performs a fresh walk.
	Resolver struct {
		reader   ManifestReader
		pathCase types.PathCase
	}

	// Edge records that From declares a project reference to To.
	Edge struct {
		From types.ManifestPath
		To   types.ManifestPath
	}

	// Closure is the ordered, deduplicated result of a walk.
	Closure struct {
		root     types.ManifestPath
		pathCase types.PathCase
		members  []types.ManifestPath
		index    map[string]int
		edges    []Edge
	}

	// ResolveError wraps a fatal failure during a walk with the chain of
	// manifests that led to the failing one (root first).
	ResolveError struct {
		Trail []types.ManifestPath
		Err   error
	}

	walker struct {
		ctx      context.Context
		reader   ManifestReader
		pathCase types.PathCase
		visited  map[string]bool
		out      *Closure
	}
)

// WithReader overrides the manifest reader (default: manifest.NewReader(0)).
func WithReader(r ManifestReader) Option {
	return func(res *Resolver) { res.reader = r }
}

// WithPathCase sets the path comparison policy. PathCaseAuto is resolved
// against the running OS.
func WithPathCase(c types.PathCase) Option {
	return func(res *Resolver) { res.pathCase = c }
}

// NewResolver creates a Resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{pathCase: types.PathCaseAuto}
	for _, opt := range opts {
		opt(r)
	}
	if r.reader == nil {
		r.reader = manifest.NewReader(0)
	}
	r.pathCase = r.pathCase.ForOS(runtime.GOOS)
	return r
}

// PathCase reports the concrete comparison policy in effect.
func (r *Resolver) PathCase() types.PathCase { return r.pathCase }

// Resolve returns the closure of manifests reachable from start. Any manifest
// that cannot be read or parsed aborts the walk with a *ResolveError.
func (r *Resolver) Resolve(ctx context.Context, start types.ManifestPath) (*Closure, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("resolve closure canceled: %w", ctx.Err())
	default:
	}

	if err := start.Validate(); err != nil {
		return nil, err
	}

	w := &walker{
		ctx:      ctx,
		reader:   r.reader,
		pathCase: r.pathCase,
		visited:  map[string]bool{r.pathCase.Key(string(start)): true},
		out:      newClosure(start, r.pathCase),
	}
	if err := w.walk(start, []types.ManifestPath{start}); err != nil {
		return nil, err
	}

	slog.Debug("resolved reference closure", "start", start, "members", len(w.out.members), "edges", len(w.out.edges))
	return w.out, nil
}

func (w *walker) walk(path types.ManifestPath, trail []types.ManifestPath) error {
	doc, err := w.reader.Read(path)
	if err != nil {
		return &ResolveError{Trail: slices.Clone(trail), Err: err}
	}

	for _, ref := range doc.References {
		target, err := fspath.ResolveReference(path.Dir(), ref.Include)
		if err != nil {
			return &ResolveError{Trail: slices.Clone(trail), Err: err}
		}
		w.out.edges = append(w.out.edges, Edge{From: path, To: target})

		key := w.pathCase.Key(string(target))
		if w.visited[key] {
			continue
		}
		w.visited[key] = true
		w.out.add(target, key)
		slog.Debug("discovered project reference", "from", path, "to", target)

		if err := w.walk(target, append(trail, target)); err != nil {
			return err
		}
	}
	return nil
}

func newClosure(root types.ManifestPath, pathCase types.PathCase) *Closure {
	return &Closure{root: root, pathCase: pathCase, index: make(map[string]int)}
}

func (c *Closure) add(p types.ManifestPath, key string) {
	c.index[key] = len(c.members)
	c.members = append(c.members, p)
}

// Root returns the manifest the walk started from. It is not a member.
func (c *Closure) Root() types.ManifestPath { return c.root }

// PathCase returns the concrete path policy the walk compared paths with.
func (c *Closure) PathCase() types.PathCase { return c.pathCase }

// Len returns the number of members.
func (c *Closure) Len() int { return len(c.members) }

// Paths returns the members in discovery order.
func (c *Closure) Paths() []types.ManifestPath { return slices.Clone(c.members) }

// Contains reports whether p is a member under the closure's path policy.
func (c *Closure) Contains(p types.ManifestPath) bool {
	_, ok := c.index[c.pathCase.Key(string(p))]
	return ok
}

// Edges returns every reference declaration seen during the walk, including
// ones that pointed at already-visited manifests.
func (c *Closure) Edges() []Edge { return slices.Clone(c.edges) }

// DependencyOrder returns the root and all members ordered so that every
// manifest comes after the manifests it references. Ties keep discovery
// order. A reference cycle yields a *dag.CycleError.
func (c *Closure) DependencyOrder() ([]types.ManifestPath, error) {
	g := dag.New()
	canonical := make(map[string]types.ManifestPath, len(c.members)+1)
	node := func(p types.ManifestPath) string {
		key := c.pathCase.Key(string(p))
		if _, ok := canonical[key]; !ok {
			canonical[key] = p
		}
		return string(canonical[key])
	}

	g.AddNode(node(c.root))
	for _, m := range c.members {
		g.AddNode(node(m))
	}
	for _, e := range c.edges {
		// A referenced project must be loaded before the one referencing it.
		g.AddEdge(node(e.To), node(e.From))
	}

	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	out := make([]types.ManifestPath, len(order))
	for i, n := range order {
		out[i] = types.ManifestPath(n)
	}
	return out, nil
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	if len(e.Trail) <= 1 {
		return fmt.Sprintf("resolve project references: %v", e.Err)
	}
	names := make([]string, len(e.Trail))
	for i, p := range e.Trail {
		names[i] = p.Base()
	}
	return fmt.Sprintf("resolve project references (via %s): %v", strings.Join(names, " -> "), e.Err)
}

// Unwrap returns the underlying error.
func (e *ResolveError) Unwrap() error { return e.Err }

// IsParseError reports whether err came from an unreadable or malformed manifest.
func IsParseError(err error) bool {
	return errors.Is(err, manifest.ErrParse)
}
