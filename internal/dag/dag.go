// SPDX-License-Identifier: MPL-2.0

// Package dag orders the project reference graph so that referenced projects
// come before the projects that reference them, and reports reference cycles.
// It wraps github.com/dominikbraun/graph with insertion-order tie breaking.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dominikbraun/graph"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle lists every node that sits on a cycle, in insertion order.
		Cycle []string
	}

	// Graph is a directed graph for topological sorting.
	// Nodes are identified by string keys. An edge from A to B means A must be
	// ordered before B.
	Graph struct {
		g graph.Graph[string, string]
		// order maps each node to its insertion index for deterministic output.
		order     map[string]int
		selfLoops map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		g:         graph.New(graph.StringHash, graph.Directed()),
		order:     make(map[string]int),
		selfLoops: make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.order[name]; ok {
		return
	}
	// The only possible error is ErrVertexAlreadyExists, ruled out above.
	_ = g.g.AddVertex(name)
	g.order[name] = len(g.order)
}

// AddEdge adds a directed edge from -> to, meaning "from" must be ordered
// before "to". Both nodes are implicitly added. Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if from == to {
		g.selfLoops[from] = true
	}
	if err := g.g.AddEdge(from, to); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		panic(fmt.Sprintf("dag: adding edge %s -> %s: %v", from, to, err))
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// TopologicalSort returns a valid order. Nodes whose relative order is not
// constrained keep the order in which they were first added.
// Returns CycleError if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.order) == 0 {
		return nil, nil
	}

	order, err := graph.StableTopologicalSort(g.g, func(a, b string) bool {
		return g.order[a] < g.order[b]
	})
	if err == nil {
		return order, nil
	}

	if cycle := g.cycleNodes(); len(cycle) > 0 {
		return nil, &CycleError{Cycle: cycle}
	}
	return nil, fmt.Errorf("topological sort: %w", err)
}

// cycleNodes returns every node in a strongly connected component of size > 1
// plus every node with an edge to itself, in insertion order.
func (g *Graph) cycleNodes() []string {
	onCycle := make(map[string]bool)
	for n := range g.selfLoops {
		onCycle[n] = true
	}
	components, err := graph.StronglyConnectedComponents(g.g)
	if err == nil {
		for _, comp := range components {
			if len(comp) < 2 {
				continue
			}
			for _, n := range comp {
				onCycle[n] = true
			}
		}
	}

	nodes := make([]string, 0, len(onCycle))
	for n := range onCycle {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b string) int { return g.order[a] - g.order[b] })
	return nodes
}
