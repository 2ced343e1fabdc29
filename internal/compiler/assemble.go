// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"slices"

	"github.com/charmbracelet/log"

	"github.com/stackgraph/stackgraph/pkg/depgraph"
)

type (
	// Assembler collects nodes and edges of one compilation pass and produces the graph.
	// It is not safe for concurrent use.
	Assembler struct {
		logger *log.Logger
		nodes  []*depgraph.Node
		index  map[string]int
		edges  []depgraph.Edge
		seen   map[depgraph.Edge]struct{}
	}

	// IngressDefaults describes the ingress synthesized when exposed services exist and
	// none was registered.
	IngressDefaults struct {
		// Kind is depgraph.KindNginx when empty.
		Kind    depgraph.Kind
		Options NodeOptions
	}
)

// NewAssembler creates an empty Assembler. Replaced nodes are reported on logger.
func NewAssembler(logger *log.Logger) *Assembler {
	return &Assembler{
		logger: logger,
		index:  make(map[string]int),
		seen:   make(map[depgraph.Edge]struct{}),
	}
}

// AddNode registers n. A node with the same ref as an earlier one replaces it in place
// and AddNode reports true.
func (a *Assembler) AddNode(n *depgraph.Node) bool {
	ref := n.Ref()
	if i, ok := a.index[ref]; ok {
		a.logger.Warn("node redefined, keeping the later definition", "ref", ref)
		a.nodes[i] = n
		return true
	}
	a.index[ref] = len(a.nodes)
	a.nodes = append(a.nodes, n)
	return false
}

// Nodes returns the registered nodes in registration order. The nodes are live: the
// interpolation phase fills their parameters in place.
func (a *Assembler) Nodes() []*depgraph.Node {
	return slices.Clone(a.nodes)
}

// AddEdge records e. Self edges are rejected and repeated edges are ignored.
func (a *Assembler) AddEdge(e depgraph.Edge) error {
	if e.From == e.To {
		return &depgraph.StructureError{
			Kind:   depgraph.SelfEdge,
			From:   e.From,
			Target: e.To,
			Detail: "a node cannot have a " + e.Type.String() + " edge to itself",
		}
	}
	if _, dup := a.seen[e]; dup {
		return nil
	}
	a.seen[e] = struct{}{}
	a.edges = append(a.edges, e)
	return nil
}

// AddEdges records every edge of edges, stopping at the first error.
func (a *Assembler) AddEdges(edges []depgraph.Edge) error {
	for _, e := range edges {
		if err := a.AddEdge(e); err != nil {
			return err
		}
	}
	return nil
}

// Finalize produces the graph. When a service is exposed, the registered ingress is
// reused or one is synthesized from defaults, and the ingress gets a dependency edge
// to every exposed service. The Assembler is left unchanged on error.
func (a *Assembler) Finalize(defaults IngressDefaults) (*depgraph.Graph, error) {
	nodes := slices.Clone(a.nodes)
	edges := slices.Clone(a.edges)
	seen := make(map[depgraph.Edge]struct{}, len(edges))
	for _, e := range edges {
		seen[e] = struct{}{}
	}

	var exposed []*depgraph.Node
	var ingress *depgraph.Node
	for _, n := range nodes {
		switch {
		case n.Kind.IsGateway():
			ingress = n
		case n.IsService() && n.Ports.Exposed():
			exposed = append(exposed, n)
		}
	}

	if len(exposed) > 0 && ingress == nil {
		var err error
		ingress, err = NewIngressNode(defaults.Kind, defaults.Options)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("synthesized ingress", "kind", ingress.Kind, "exposed", len(exposed))
		nodes = append(nodes, ingress)
	}

	for _, svc := range exposed {
		e, err := depgraph.NewEdge(ingress, svc, depgraph.EdgeDependency)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[e]; !dup {
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}

	return depgraph.New(nodes, edges)
}
