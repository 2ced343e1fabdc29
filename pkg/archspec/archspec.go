// SPDX-License-Identifier: MPL-2.0

package archspec

import (
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/stackgraph/stackgraph/pkg/depgraph"
)

const (
	// GatewayNginx declares the default nginx ingress.
	GatewayNginx GatewayKind = "nginx"
	// GatewayGeneric declares a generic ingress the renderer chooses an implementation for.
	GatewayGeneric GatewayKind = "gateway"
)

type (
	// Spec is a decoded specification document.
	Spec struct {
		Name     string   `yaml:"name"`
		Version  string   `yaml:"version"`
		Gateway  *Gateway `yaml:"gateway"`
		Services Services `yaml:"services"`

		// File is the path the document was read from. Not part of the document.
		File string `yaml:"-"`
	}

	// GatewayKind selects the ingress implementation.
	GatewayKind string

	// Gateway declares the ingress explicitly. Name and tag are informational;
	// every ingress shares one identity in the graph.
	Gateway struct {
		Kind  GatewayKind    `yaml:"kind"`
		Name  string         `yaml:"name"`
		Tag   string         `yaml:"tag"`
		Image string         `yaml:"image"`
		Host  string         `yaml:"host"`
		Ports depgraph.Ports `yaml:"ports"`
	}

	// Services is the ordered list of service declarations. In YAML it is a mapping from
	// service name to declaration.
	Services []Service

	// Service declares one deployable unit.
	Service struct {
		// Name is the mapping key the service was declared under.
		Name          string                  `yaml:"-"`
		Image         string                  `yaml:"image"`
		Tag           string                  `yaml:"tag"`
		Host          string                  `yaml:"host"`
		Ports         depgraph.Ports          `yaml:"ports"`
		API           *depgraph.API           `yaml:"api"`
		DependsOn     []string                `yaml:"depends_on"`
		Publishes     []string                `yaml:"publishes"`
		Subscriptions map[string]Subscription `yaml:"subscriptions"`
		Parameters    map[string]Parameter    `yaml:"parameters"`
	}

	// Subscription declares how a service wants an event delivered.
	// The scalar form "event: /uri" is shorthand for a REST subscription.
	Subscription struct {
		Kind      depgraph.SubscriptionKind `yaml:"kind"`
		Publisher string                    `yaml:"publisher"`
		URI       string                    `yaml:"uri"`
		Headers   map[string]string         `yaml:"headers"`
	}

	// Parameter declares a configuration variable of a service.
	// The scalar form "KEY: value" is shorthand for a parameter with that default.
	Parameter struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		// Default is nil when no default is declared. An explicit YAML null counts as none.
		Default any `yaml:"default"`
		// Required defaults to true when omitted.
		Required *bool `yaml:"required"`
	}
)

// String returns the kind name.
func (k GatewayKind) String() string { return string(k) }

// NodeKind maps the declared ingress kind onto a node kind. An empty kind means nginx.
func (k GatewayKind) NodeKind() depgraph.Kind {
	if k == GatewayGeneric {
		return depgraph.KindGateway
	}
	return depgraph.KindNginx
}

// UnmarshalYAML decodes the services mapping keeping document order.
func (s *Services) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: services must be a mapping of service name to declaration", value.Line)
	}
	out := make(Services, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, body := value.Content[i], value.Content[i+1]
		var svc Service
		if body.Kind != yaml.ScalarNode || body.ShortTag() != "!!null" {
			if err := body.Decode(&svc); err != nil {
				return err
			}
		}
		svc.Name = keyNode.Value
		out = append(out, svc)
	}
	*s = out
	return nil
}

// Names returns the service names in document order.
func (s Services) Names() []string {
	names := make([]string, len(s))
	for i := range s {
		names[i] = s[i].Name
	}
	return names
}

// ParameterKeys returns the declared parameter keys, sorted.
func (s *Service) ParameterKeys() []string {
	return slices.Sorted(maps.Keys(s.Parameters))
}

// SubscriptionOptions converts the subscription declared for event into graph options.
func (s Subscription) SubscriptionOptions(event string) depgraph.SubscriptionOptions {
	opts := depgraph.NewRestSubscription(event, s.URI, s.Headers)
	opts.Publisher = s.Publisher
	if s.Kind != "" {
		opts.Kind = s.Kind
	}
	return opts
}

// UnmarshalYAML accepts both the mapping form and the URI shorthand.
func (s *Subscription) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*s = Subscription{Kind: depgraph.SubscriptionRest, URI: value.Value}
		return nil
	}
	type plain Subscription
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Subscription(p)
	if s.Kind == "" {
		s.Kind = depgraph.SubscriptionRest
	}
	return nil
}

// UnmarshalYAML accepts both the mapping form and the default-value shorthand.
func (p *Parameter) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var def any
		if err := value.Decode(&def); err != nil {
			return err
		}
		*p = Parameter{Default: def}
		return nil
	}
	type plain Parameter
	var pl plain
	if err := value.Decode(&pl); err != nil {
		return err
	}
	*p = Parameter(pl)
	return nil
}

// IsRequired reports whether the parameter must receive a value when it has no default.
func (p Parameter) IsRequired() bool {
	return p.Required == nil || *p.Required
}

// HasDefault reports whether a default value is declared.
func (p Parameter) HasDefault() bool { return p.Default != nil }
