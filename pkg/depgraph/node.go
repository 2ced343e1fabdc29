// SPDX-License-Identifier: MPL-2.0

package depgraph

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"
)

const (
	// KindService is a deployable unit declared in a specification.
	KindService Kind = "service"
	// KindGateway is a generic ingress node.
	KindGateway Kind = "gateway"
	// KindNginx is the default concrete ingress node.
	KindNginx Kind = "nginx"

	// DefaultTag is used when a node is built without a tag.
	DefaultTag = "latest"

	// GatewayRef is the identity shared by every gateway-kind node, whatever its name or tag.
	GatewayRef = "gateway"
)

var (
	// sentinelRefs fixes the Ref of kinds whose identity does not depend on name and tag.
	sentinelRefs = map[Kind]string{
		KindGateway: GatewayRef,
		KindNginx:   GatewayRef,
	}

	disallowedRefChars = regexp.MustCompile(`[^a-z0-9-]+`)
	repeatedSeparators = regexp.MustCompile(`-{2,}`)
)

type (
	// Kind tags the node variant.
	Kind string

	// Ports holds the port a node listens on and the port it is published under.
	// Zero means unset.
	Ports struct {
		Target int `json:"target,omitempty" yaml:"target,omitempty" toml:"target,omitempty"`
		Expose int `json:"expose,omitempty" yaml:"expose,omitempty" toml:"expose,omitempty"`
	}

	// API describes the interface a service exposes to consumers.
	API struct {
		Protocol string `json:"protocol" yaml:"protocol" toml:"protocol"`
		Path     string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	}

	// Node is a deployable unit or synthesized infrastructure element.
	Node struct {
		Kind  Kind   `json:"kind" yaml:"kind" toml:"kind"`
		Name  string `json:"name" yaml:"name" toml:"name"`
		Tag   string `json:"tag" yaml:"tag" toml:"tag"`
		Image string `json:"image,omitempty" yaml:"image,omitempty" toml:"image,omitempty"`
		Host  string `json:"host,omitempty" yaml:"host,omitempty" toml:"host,omitempty"`
		Ports Ports  `json:"ports" yaml:"ports" toml:"ports"`

		// Parameters holds resolved configuration values (string, int, float64 or bool).
		// Absent optional parameters have no key.
		Parameters map[string]any `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`

		// Service-only fields. They stay empty for ingress kinds.

		API           *API                           `json:"api,omitempty" yaml:"api,omitempty" toml:"api,omitempty"`
		DependsOn     []string                       `json:"depends_on,omitempty" yaml:"depends_on,omitempty" toml:"depends_on,omitempty"`
		Publishes     []string                       `json:"publishes,omitempty" yaml:"publishes,omitempty" toml:"publishes,omitempty"`
		Subscriptions map[string]SubscriptionOptions `json:"subscriptions,omitempty" yaml:"subscriptions,omitempty" toml:"subscriptions,omitempty"`
	}
)

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// IsGateway reports whether nodes of this kind act as the graph's ingress.
func (k Kind) IsGateway() bool {
	_, ok := sentinelRefs[k]
	return ok
}

// Validate returns an error for kinds outside the closed set.
func (k Kind) Validate() error {
	switch k {
	case KindService, KindGateway, KindNginx:
		return nil
	default:
		return fmt.Errorf("unknown node kind %q", k)
	}
}

// Exposed reports whether the node is published through the ingress.
func (p Ports) Exposed() bool { return p.Expose > 0 }

// Ref returns the node identity: "name:tag" for services and GatewayRef for ingress kinds.
func (n *Node) Ref() string {
	if ref, ok := sentinelRefs[n.Kind]; ok {
		return ref
	}
	tag := n.Tag
	if tag == "" {
		tag = DefaultTag
	}
	return n.Name + ":" + tag
}

// NormalizedRef returns Ref in a form usable as a hostname.
func (n *Node) NormalizedRef() string {
	return NormalizeRef(n.Ref())
}

// EnvRef returns the identity other nodes embed when they reference this node in their
// configuration. It is kept separate from Ref so deployment identity can change without
// changing interpolated values.
func (n *Node) EnvRef() string {
	return n.Ref()
}

// Equals reports whether both nodes have the same Ref. Ports, parameters and every other
// field are ignored.
func (n *Node) Equals(other *Node) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.Ref() == other.Ref()
}

// IsService reports whether n is a service node.
func (n *Node) IsService() bool { return n.Kind == KindService }

// PublishesEvent reports whether n declares event among its published events.
func (n *Node) PublishesEvent(event string) bool {
	return slices.Contains(n.Publishes, event)
}

// SubscribedEvents returns the events n subscribes to, sorted.
func (n *Node) SubscribedEvents() []string {
	return slices.Sorted(maps.Keys(n.Subscriptions))
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	c := *n
	c.Parameters = maps.Clone(n.Parameters)
	c.DependsOn = slices.Clone(n.DependsOn)
	c.Publishes = slices.Clone(n.Publishes)
	if n.API != nil {
		api := *n.API
		c.API = &api
	}
	if n.Subscriptions != nil {
		c.Subscriptions = make(map[string]SubscriptionOptions, len(n.Subscriptions))
		for event, sub := range n.Subscriptions {
			c.Subscriptions[event] = sub.Clone()
		}
	}
	return &c
}

// NormalizeRef lower-cases ref, replaces characters outside [a-z0-9-] with "-", collapses
// repeated separators and trims them from both ends.
func NormalizeRef(ref string) string {
	s := strings.ToLower(ref)
	s = disallowedRefChars.ReplaceAllString(s, "-")
	s = repeatedSeparators.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
