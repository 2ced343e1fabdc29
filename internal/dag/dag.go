// SPDX-License-Identifier: MPL-2.0

// Package dag orders the nodes of a compiled graph so that every node comes after the
// nodes it depends on. Renderers use the order to emit start-up sequences; notification
// edges are not ordering constraints and never reach this package.
package dag

import (
	"fmt"
	"strings"
)

type (
	// CycleError reports dependency edges that loop back on themselves.
	CycleError struct {
		// Nodes lists every node left unordered, in insertion order. The cycle is among them.
		Nodes []string
	}

	// Graph is a dependency graph keyed by node ref.
	Graph struct {
		// dependants maps a node to the nodes that depend on it.
		dependants map[string][]string
		// pending counts the unsatisfied dependencies of each node.
		pending map[string]int
		// order keeps insertion order for deterministic output.
		order []string
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among: %s", strings.Join(e.Nodes, ", "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		dependants: make(map[string][]string),
		pending:    make(map[string]int),
	}
}

// AddNode registers ref. Registering a known ref is a no-op.
func (g *Graph) AddNode(ref string) {
	if _, ok := g.pending[ref]; ok {
		return
	}
	g.pending[ref] = 0
	g.order = append(g.order, ref)
}

// AddDependency records that dependant needs dependency to be started first.
// Unknown refs are registered implicitly.
func (g *Graph) AddDependency(dependant, dependency string) {
	g.AddNode(dependency)
	g.AddNode(dependant)
	g.dependants[dependency] = append(g.dependants[dependency], dependant)
	g.pending[dependant]++
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int { return len(g.order) }

// Order returns every node after all of its dependencies (Kahn's algorithm).
// Nodes that become ready together keep their insertion order.
func (g *Graph) Order() ([]string, error) {
	if len(g.order) == 0 {
		return nil, nil
	}

	pending := make(map[string]int, len(g.pending))
	for ref, n := range g.pending {
		pending[ref] = n
	}

	queue := make([]string, 0, len(g.order))
	for _, ref := range g.order {
		if pending[ref] == 0 {
			queue = append(queue, ref)
		}
	}

	result := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		result = append(result, ref)

		for _, dependant := range g.dependants[ref] {
			pending[dependant]--
			if pending[dependant] == 0 {
				queue = append(queue, dependant)
			}
		}
	}

	if len(result) != len(g.order) {
		var stuck []string
		for _, ref := range g.order {
			if pending[ref] > 0 {
				stuck = append(stuck, ref)
			}
		}
		return nil, &CycleError{Nodes: stuck}
	}

	return result, nil
}
