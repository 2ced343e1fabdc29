// SPDX-License-Identifier: MPL-2.0

package depgraph

import "fmt"

const (
	// EdgeDependency is a synchronous need: From cannot work without To.
	EdgeDependency EdgeType = "dependency"
	// EdgeNotification is an event subscription: From receives events published by To.
	EdgeNotification EdgeType = "notification"
)

type (
	// EdgeType tags an edge.
	EdgeType string

	// Edge is a directed connection between two nodes, named by Ref.
	// Edges do not own their endpoints.
	Edge struct {
		From string   `json:"from" yaml:"from" toml:"from"`
		To   string   `json:"to" yaml:"to" toml:"to"`
		Type EdgeType `json:"type" yaml:"type" toml:"type"`
	}
)

// String returns the edge type name.
func (t EdgeType) String() string { return string(t) }

// Validate returns an error for edge types outside the closed set.
func (t EdgeType) Validate() error {
	switch t {
	case EdgeDependency, EdgeNotification:
		return nil
	default:
		return fmt.Errorf("unknown edge type %q", t)
	}
}

// NewEdge connects from to to. An edge from a node to itself is a StructureError.
func NewEdge(from, to *Node, typ EdgeType) (Edge, error) {
	if from.Equals(to) {
		return Edge{}, &StructureError{
			Kind:   SelfEdge,
			From:   from.Ref(),
			Target: to.Ref(),
			Detail: fmt.Sprintf("a node cannot have a %s edge to itself", typ),
		}
	}
	return Edge{From: from.Ref(), To: to.Ref(), Type: typ}, nil
}

// String renders the edge as "from -[type]-> to".
func (e Edge) String() string {
	return fmt.Sprintf("%s -[%s]-> %s", e.From, e.Type, e.To)
}
