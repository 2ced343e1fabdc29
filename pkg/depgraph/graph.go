// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"fmt"
	"slices"

	"github.com/stackgraph/stackgraph/internal/dag"
)

type (
	// Graph is a finalized, read-only dependency graph.
	Graph struct {
		nodes []*Node
		index map[string]int
		edges []Edge
	}

	// Document is the serializable view of a Graph consumed by renderers and output writers.
	Document struct {
		Nodes []NodeDocument `json:"nodes" yaml:"nodes" toml:"nodes"`
		Edges []Edge         `json:"edges" yaml:"edges" toml:"edges"`
	}

	// NodeDocument is a node together with its derived identities.
	NodeDocument struct {
		Ref           string `json:"ref" yaml:"ref" toml:"ref"`
		NormalizedRef string `json:"normalized_ref" yaml:"normalized_ref" toml:"normalized_ref"`
		EnvRef        string `json:"env_ref" yaml:"env_ref" toml:"env_ref"`
		Node          `yaml:",inline"`
	}
)

// New builds a Graph from nodes with unique refs and edges whose endpoints are among them.
// Both slices are copied.
func New(nodes []*Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes: make([]*Node, 0, len(nodes)),
		index: make(map[string]int, len(nodes)),
		edges: slices.Clone(edges),
	}

	gateways := 0
	for _, n := range nodes {
		if err := n.Kind.Validate(); err != nil {
			return nil, err
		}
		ref := n.Ref()
		if _, dup := g.index[ref]; dup {
			return nil, &StructureError{Kind: AmbiguousReference, Target: ref, Detail: "duplicate node ref"}
		}
		if n.Kind.IsGateway() {
			gateways++
		}
		g.index[ref] = len(g.nodes)
		g.nodes = append(g.nodes, n.Clone())
	}
	if gateways > 1 {
		return nil, &StructureError{Kind: AmbiguousReference, Target: GatewayRef, Detail: "more than one gateway node"}
	}

	for _, e := range g.edges {
		if err := e.Type.Validate(); err != nil {
			return nil, err
		}
		if e.From == e.To {
			return nil, &StructureError{Kind: SelfEdge, From: e.From, Target: e.To}
		}
		for _, ref := range []string{e.From, e.To} {
			if _, ok := g.index[ref]; !ok {
				return nil, &StructureError{
					Kind:   UnknownNode,
					From:   e.From,
					Target: ref,
					Detail: fmt.Sprintf("%s edge endpoint is not a node of the graph", e.Type),
				}
			}
		}
	}

	return g, nil
}

// Nodes returns copies of the nodes in registration order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Clone()
	}
	return out
}

// Edges returns the edges in creation order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns a copy of the node with the given ref.
func (g *Graph) Node(ref string) (*Node, bool) {
	i, ok := g.index[ref]
	if !ok {
		return nil, false
	}
	return g.nodes[i].Clone(), true
}

// Gateway returns the ingress node, if the graph has one.
func (g *Graph) Gateway() (*Node, bool) {
	return g.Node(GatewayRef)
}

// EdgesFrom returns the edges leaving ref.
func (g *Graph) EdgesFrom(ref string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.From == ref {
			out = append(out, e)
		}
	}
	return out
}

// EdgesTo returns the edges arriving at ref.
func (g *Graph) EdgesTo(ref string) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.To == ref {
			out = append(out, e)
		}
	}
	return out
}

// StartOrder returns node refs ordered so that every node follows the nodes it has
// dependency edges to. Notification edges do not constrain the order.
func (g *Graph) StartOrder() ([]string, error) {
	d := dag.New()
	for _, n := range g.nodes {
		d.AddNode(n.Ref())
	}
	for _, e := range g.edges {
		if e.Type == EdgeDependency {
			d.AddDependency(e.From, e.To)
		}
	}
	return d.Order()
}

// Document returns the serializable view of the graph.
func (g *Graph) Document() Document {
	doc := Document{
		Nodes: make([]NodeDocument, len(g.nodes)),
		Edges: g.Edges(),
	}
	for i, n := range g.nodes {
		doc.Nodes[i] = NodeDocument{
			Ref:           n.Ref(),
			NormalizedRef: n.NormalizedRef(),
			EnvRef:        n.EnvRef(),
			Node:          *n.Clone(),
		}
	}
	return doc
}
