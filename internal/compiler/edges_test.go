// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/stackgraph/stackgraph/pkg/depgraph"
)

func service(name string, mutate ...func(*depgraph.Node)) *depgraph.Node {
	n := &depgraph.Node{Kind: depgraph.KindService, Name: name, Tag: depgraph.DefaultTag}
	for _, m := range mutate {
		m(n)
	}
	return n
}

func dependsOn(deps ...string) func(*depgraph.Node) {
	return func(n *depgraph.Node) { n.DependsOn = deps }
}

func publishes(events ...string) func(*depgraph.Node) {
	return func(n *depgraph.Node) { n.Publishes = events }
}

func subscribes(event, publisher string) func(*depgraph.Node) {
	return func(n *depgraph.Node) {
		if n.Subscriptions == nil {
			n.Subscriptions = map[string]depgraph.SubscriptionOptions{}
		}
		sub := depgraph.NewRestSubscription(event, "/hooks/"+event, nil)
		sub.Publisher = publisher
		n.Subscriptions[event] = sub
	}
}

func TestBuildEdges(t *testing.T) {
	t.Parallel()

	nodes := []*depgraph.Node{
		service("db", func(n *depgraph.Node) { n.Tag = "16" }),
		service("api", dependsOn("db", "db:16"), publishes("order.created")),
		service("mailer", subscribes("order.created", "")),
		service("web", dependsOn("api")),
	}

	edges, err := BuildEdges(nodes)
	if err != nil {
		t.Fatalf("BuildEdges() error = %v", err)
	}
	want := []depgraph.Edge{
		{From: "api:latest", To: "db:16", Type: depgraph.EdgeDependency},
		{From: "mailer:latest", To: "api:latest", Type: depgraph.EdgeNotification},
		{From: "web:latest", To: "api:latest", Type: depgraph.EdgeDependency},
	}
	if diff := cmp.Diff(want, edges); diff != "" {
		t.Errorf("BuildEdges() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildEdges_PublisherFilter(t *testing.T) {
	t.Parallel()

	nodes := []*depgraph.Node{
		service("payments", publishes("paid")),
		service("billing", publishes("paid")),
		service("mailer", subscribes("paid", "billing")),
	}

	edges, err := BuildEdges(nodes)
	if err != nil {
		t.Fatalf("BuildEdges() error = %v", err)
	}
	if len(edges) != 1 || edges[0].To != "billing:latest" || edges[0].Type != depgraph.EdgeNotification {
		t.Errorf("BuildEdges() = %v", edges)
	}
}

func TestBuildEdges_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		nodes []*depgraph.Node
		kind  depgraph.StructureErrorKind
	}{
		{
			name:  "unknown dependency",
			nodes: []*depgraph.Node{service("api", dependsOn("cache"))},
			kind:  depgraph.UnknownNode,
		},
		{
			name: "ambiguous dependency name",
			nodes: []*depgraph.Node{
				service("db", func(n *depgraph.Node) { n.Tag = "15" }),
				service("db", func(n *depgraph.Node) { n.Tag = "16" }),
				service("api", dependsOn("db")),
			},
			kind: depgraph.AmbiguousReference,
		},
		{
			name:  "self dependency",
			nodes: []*depgraph.Node{service("api", dependsOn("api"))},
			kind:  depgraph.SelfEdge,
		},
		{
			name:  "self subscription",
			nodes: []*depgraph.Node{service("api", publishes("ev"), subscribes("ev", ""))},
			kind:  depgraph.SelfEdge,
		},
		{
			name:  "no publisher",
			nodes: []*depgraph.Node{service("mailer", subscribes("order.created", ""))},
			kind:  depgraph.UnresolvedSubscription,
		},
		{
			name: "publisher filter matches nothing",
			nodes: []*depgraph.Node{
				service("payments", publishes("paid")),
				service("mailer", subscribes("paid", "billing")),
			},
			kind: depgraph.UnresolvedSubscription,
		},
		{
			name: "several publishers",
			nodes: []*depgraph.Node{
				service("payments", publishes("paid")),
				service("billing", publishes("paid")),
				service("mailer", subscribes("paid", "")),
			},
			kind: depgraph.AmbiguousReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildEdges(tt.nodes)
			if !errors.Is(err, depgraph.ErrGraphStructure) {
				t.Fatalf("BuildEdges() error = %v, want ErrGraphStructure", err)
			}
			if !depgraph.IsStructureError(err, tt.kind) {
				t.Errorf("BuildEdges() error = %v, want kind %s", err, tt.kind)
			}
		})
	}
}

func TestBuildEdges_RejectsIngressDependency(t *testing.T) {
	t.Parallel()

	declared, err := NewGatewayNode(NodeOptions{Name: "edge"})
	if err != nil {
		t.Fatalf("NewGatewayNode() error = %v", err)
	}

	tests := []struct {
		name  string
		nodes []*depgraph.Node
	}{
		{
			name:  "declared gateway",
			nodes: []*depgraph.Node{declared, service("web", dependsOn(depgraph.GatewayRef))},
		},
		{
			name:  "synthesized gateway",
			nodes: []*depgraph.Node{service("web", dependsOn(depgraph.GatewayRef))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildEdges(tt.nodes)
			if !depgraph.IsStructureError(err, depgraph.UnknownNode) {
				t.Fatalf("BuildEdges() error = %v, want kind %s", err, depgraph.UnknownNode)
			}
			var se *depgraph.StructureError
			if !errors.As(err, &se) || se.Target != depgraph.GatewayRef || se.Detail != "the ingress cannot be referenced" {
				t.Errorf("BuildEdges() error = %#v", err)
			}
		})
	}
}
