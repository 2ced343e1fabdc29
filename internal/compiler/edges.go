// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"fmt"
	"strings"

	"github.com/stackgraph/stackgraph/pkg/depgraph"
)

// BuildEdges derives edges from the declarations of nodes.
//
// A depends_on entry is a service name, or a full "name:tag" ref, and yields a dependency
// edge from the dependant to the dependency. A subscription yields a notification edge
// from the subscriber to the single service publishing the event, optionally narrowed
// by the subscription's publisher name. Duplicate edges are collapsed.
func BuildEdges(nodes []*depgraph.Node) ([]depgraph.Edge, error) {
	var (
		edges []depgraph.Edge
		seen  = make(map[depgraph.Edge]struct{})
	)
	add := func(from, to *depgraph.Node, typ depgraph.EdgeType) error {
		e, err := depgraph.NewEdge(from, to, typ)
		if err != nil {
			return err
		}
		if _, dup := seen[e]; !dup {
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
		return nil
	}

	for _, n := range nodes {
		if !n.IsService() {
			continue
		}
		for _, dep := range n.DependsOn {
			target, err := lookupDependency(nodes, n, dep)
			if err != nil {
				return nil, err
			}
			if err := add(n, target, depgraph.EdgeDependency); err != nil {
				return nil, err
			}
		}
		for _, event := range n.SubscribedEvents() {
			publisher, err := lookupPublisher(nodes, n, n.Subscriptions[event])
			if err != nil {
				return nil, err
			}
			if err := add(n, publisher, depgraph.EdgeNotification); err != nil {
				return nil, err
			}
		}
	}
	return edges, nil
}

// lookupDependency finds the service named by a depends_on entry of from. The ingress
// is never a valid target, whether it was declared or is synthesized later.
func lookupDependency(nodes []*depgraph.Node, from *depgraph.Node, dep string) (*depgraph.Node, error) {
	if dep == depgraph.GatewayRef {
		return nil, &depgraph.StructureError{
			Kind:   depgraph.UnknownNode,
			From:   from.Ref(),
			Target: dep,
			Detail: "the ingress cannot be referenced",
		}
	}

	match := func(n *depgraph.Node) bool { return n.Name == dep }
	if strings.Contains(dep, ":") {
		match = func(n *depgraph.Node) bool { return n.Ref() == dep }
	}

	var found []*depgraph.Node
	for _, n := range nodes {
		if n.IsService() && match(n) {
			found = append(found, n)
		}
	}
	switch len(found) {
	case 0:
		return nil, &depgraph.StructureError{
			Kind:   depgraph.UnknownNode,
			From:   from.Ref(),
			Target: dep,
			Detail: "no service has this name or ref",
		}
	case 1:
		return found[0], nil
	default:
		return nil, &depgraph.StructureError{
			Kind:   depgraph.AmbiguousReference,
			From:   from.Ref(),
			Target: dep,
			Detail: fmt.Sprintf("matches %s; use a name:tag ref", joinRefs(found)),
		}
	}
}

// lookupPublisher finds the single service publishing the event of sub.
func lookupPublisher(nodes []*depgraph.Node, subscriber *depgraph.Node, sub depgraph.SubscriptionOptions) (*depgraph.Node, error) {
	var found []*depgraph.Node
	for _, n := range nodes {
		if !n.IsService() || !n.PublishesEvent(sub.EventName) {
			continue
		}
		if sub.Publisher != "" && n.Name != sub.Publisher {
			continue
		}
		found = append(found, n)
	}

	switch len(found) {
	case 0:
		detail := "no service publishes this event"
		if sub.Publisher != "" {
			detail = fmt.Sprintf("service %q does not publish this event", sub.Publisher)
		}
		return nil, &depgraph.StructureError{
			Kind:   depgraph.UnresolvedSubscription,
			From:   subscriber.Ref(),
			Target: sub.EventName,
			Detail: detail,
		}
	case 1:
		return found[0], nil
	default:
		return nil, &depgraph.StructureError{
			Kind:   depgraph.AmbiguousReference,
			From:   subscriber.Ref(),
			Target: sub.EventName,
			Detail: fmt.Sprintf("published by %s; set the subscription publisher", joinRefs(found)),
		}
	}
}

func joinRefs(nodes []*depgraph.Node) string {
	refs := make([]string, len(nodes))
	for i, n := range nodes {
		refs[i] = n.Ref()
	}
	return strings.Join(refs, ", ")
}
