// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"errors"
	"fmt"
)

const (
	// SelfEdge is an edge whose endpoints are the same node.
	SelfEdge StructureErrorKind = "self-edge"
	// UnknownNode is a reference to a node that is not part of the graph.
	UnknownNode StructureErrorKind = "unknown-node"
	// UnresolvedSubscription is a subscription no node publishes.
	UnresolvedSubscription StructureErrorKind = "unresolved-subscription"
	// AmbiguousReference is a reference that matches more than one node.
	AmbiguousReference StructureErrorKind = "ambiguous-reference"
	// UnresolvedReference is a configuration placeholder that names nothing known.
	UnresolvedReference StructureErrorKind = "unresolved-reference"
)

// ErrGraphStructure is the sentinel error wrapped by StructureError.
var ErrGraphStructure = errors.New("graph structure error")

type (
	// StructureErrorKind classifies a StructureError.
	StructureErrorKind string

	// StructureError reports a graph that cannot be assembled consistently.
	StructureError struct {
		Kind StructureErrorKind
		// From is the ref of the node the problem was found on.
		From string
		// Target is the ref, name or event that could not be resolved.
		Target string
		Detail string
	}
)

// Error implements the error interface.
func (e *StructureError) Error() string {
	msg := fmt.Sprintf("invalid graph (%s)", e.Kind)
	if e.From != "" {
		msg += ": " + e.From
	}
	if e.Target != "" {
		msg += " -> " + e.Target
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns ErrGraphStructure for errors.Is() compatibility.
func (e *StructureError) Unwrap() error { return ErrGraphStructure }

// Hints returns remediation hints that name the node and target involved.
func (e *StructureError) Hints() []string {
	switch e.Kind {
	case SelfEdge:
		return []string{fmt.Sprintf("Remove %s from its own depends_on and subscriptions", e.From)}
	case UnknownNode:
		if e.Target == GatewayRef {
			return []string{fmt.Sprintf("Drop %q from %s: the ingress depends on services, not the other way round", GatewayRef, e.From)}
		}
		return []string{
			fmt.Sprintf("Declare a service named %q or fix the reference in %s", e.Target, e.From),
			"Service names are case sensitive; use name:tag to pick a tag",
		}
	case UnresolvedSubscription:
		return []string{fmt.Sprintf("Add %q to the publishes list of a service, or drop the subscription of %s", e.Target, e.From)}
	case AmbiguousReference:
		return []string{fmt.Sprintf("Refer to %q by its full name:tag ref, or set the subscription's publisher", e.Target)}
	case UnresolvedReference:
		return []string{fmt.Sprintf("Use ${{ services.<name>.<ref|host|port|url> }} or ${{ parameters.<KEY> }} in %s", e.From)}
	default:
		return nil
	}
}

// IsStructureError reports whether err holds a StructureError of the given kind.
func IsStructureError(err error, kind StructureErrorKind) bool {
	var se *StructureError
	return errors.As(err, &se) && se.Kind == kind
}
