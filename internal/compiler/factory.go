// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/stackgraph/stackgraph/pkg/archspec"
	"github.com/stackgraph/stackgraph/pkg/depgraph"
)

const (
	maxPort = 65535

	// DefaultAPIProtocol is used for services that listen on a port without declaring an api block.
	DefaultAPIProtocol = "http"
	// DefaultNginxImage is the image of a synthesized nginx ingress.
	DefaultNginxImage = "nginx"
	// DefaultIngressPort is the port ingress nodes listen on.
	DefaultIngressPort = 80
)

// ErrInvalidNode is the sentinel error wrapped by InvalidNodeError.
var ErrInvalidNode = errors.New("invalid node options")

type (
	// NodeOptions is the input of the node constructors.
	NodeOptions struct {
		Name          string
		Tag           string
		Image         string
		Host          string
		Ports         depgraph.Ports
		API           *depgraph.API
		Parameters    map[string]any
		DependsOn     []string
		Publishes     []string
		Subscriptions map[string]depgraph.SubscriptionOptions
	}

	// InvalidNodeError is returned when node options cannot produce a node.
	InvalidNodeError struct {
		Kind   depgraph.Kind
		Name   string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidNodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("invalid %s node: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s node %q: %s", e.Kind, e.Name, e.Reason)
}

// Unwrap returns ErrInvalidNode for errors.Is() compatibility.
func (e *InvalidNodeError) Unwrap() error { return ErrInvalidNode }

// ServiceOptions builds node options from a declared service and its resolved parameters.
func ServiceOptions(svc *archspec.Service, parameters map[string]any) NodeOptions {
	opts := NodeOptions{
		Name:       svc.Name,
		Tag:        svc.Tag,
		Image:      svc.Image,
		Host:       svc.Host,
		Ports:      svc.Ports,
		Parameters: parameters,
		DependsOn:  svc.DependsOn,
		Publishes:  svc.Publishes,
	}
	if svc.API != nil {
		api := *svc.API
		opts.API = &api
	}
	if len(svc.Subscriptions) > 0 {
		opts.Subscriptions = make(map[string]depgraph.SubscriptionOptions, len(svc.Subscriptions))
		for event, sub := range svc.Subscriptions {
			opts.Subscriptions[event] = sub.SubscriptionOptions(event)
		}
	}
	return opts
}

// GatewayOptions builds node options from a declared ingress.
func GatewayOptions(gw *archspec.Gateway) NodeOptions {
	return NodeOptions{
		Name:  gw.Name,
		Tag:   gw.Tag,
		Image: gw.Image,
		Host:  gw.Host,
		Ports: gw.Ports,
	}
}

// NewServiceNode builds a service node. A service listening on a port, or declaring an
// api block, gets an API descriptor.
func NewServiceNode(opts NodeOptions) (*depgraph.Node, error) {
	if opts.Name == "" {
		return nil, &InvalidNodeError{Kind: depgraph.KindService, Reason: "name must not be empty"}
	}
	if err := validatePorts(depgraph.KindService, opts); err != nil {
		return nil, err
	}

	n := newNode(depgraph.KindService, opts)
	n.DependsOn = slices.Clone(opts.DependsOn)
	n.Publishes = slices.Clone(opts.Publishes)
	if len(opts.Subscriptions) > 0 {
		n.Subscriptions = make(map[string]depgraph.SubscriptionOptions, len(opts.Subscriptions))
		for event, sub := range opts.Subscriptions {
			sub = sub.Clone()
			if sub.EventName == "" {
				sub.EventName = event
			}
			n.Subscriptions[event] = sub
		}
	}
	switch {
	case opts.API != nil:
		api := *opts.API
		if api.Protocol == "" {
			api.Protocol = DefaultAPIProtocol
		}
		n.API = &api
	case opts.Ports.Target > 0:
		n.API = &depgraph.API{Protocol: DefaultAPIProtocol}
	}
	return n, nil
}

// NewGatewayNode builds a generic ingress node. Its ref is always depgraph.GatewayRef.
func NewGatewayNode(opts NodeOptions) (*depgraph.Node, error) {
	return newIngressNode(depgraph.KindGateway, opts)
}

// NewNginxNode builds the default nginx ingress node. Its ref is always depgraph.GatewayRef.
func NewNginxNode(opts NodeOptions) (*depgraph.Node, error) {
	if opts.Image == "" {
		opts.Image = DefaultNginxImage
	}
	return newIngressNode(depgraph.KindNginx, opts)
}

// NewIngressNode dispatches to the constructor of an ingress kind.
func NewIngressNode(kind depgraph.Kind, opts NodeOptions) (*depgraph.Node, error) {
	switch kind {
	case depgraph.KindGateway:
		return NewGatewayNode(opts)
	case depgraph.KindNginx, "":
		return NewNginxNode(opts)
	default:
		return nil, &InvalidNodeError{Kind: kind, Name: opts.Name, Reason: "not an ingress kind"}
	}
}

func newIngressNode(kind depgraph.Kind, opts NodeOptions) (*depgraph.Node, error) {
	if len(opts.DependsOn) > 0 || len(opts.Publishes) > 0 || len(opts.Subscriptions) > 0 || opts.API != nil {
		return nil, &InvalidNodeError{Kind: kind, Name: opts.Name, Reason: "ingress nodes cannot declare dependencies, events or an api"}
	}
	if opts.Name == "" {
		opts.Name = kind.String()
	}
	if opts.Ports.Target == 0 {
		opts.Ports.Target = DefaultIngressPort
	}
	if err := validatePorts(kind, opts); err != nil {
		return nil, err
	}
	return newNode(kind, opts), nil
}

func newNode(kind depgraph.Kind, opts NodeOptions) *depgraph.Node {
	tag := opts.Tag
	if tag == "" {
		tag = depgraph.DefaultTag
	}
	return &depgraph.Node{
		Kind:       kind,
		Name:       opts.Name,
		Tag:        tag,
		Image:      opts.Image,
		Host:       opts.Host,
		Ports:      opts.Ports,
		Parameters: maps.Clone(opts.Parameters),
	}
}

func validatePorts(kind depgraph.Kind, opts NodeOptions) error {
	for _, p := range []struct {
		name  string
		value int
	}{
		{"target", opts.Ports.Target},
		{"expose", opts.Ports.Expose},
	} {
		if p.value < 0 || p.value > maxPort {
			return &InvalidNodeError{
				Kind:   kind,
				Name:   opts.Name,
				Reason: fmt.Sprintf("%s port %d out of range 0-%d", p.name, p.value, maxPort),
			}
		}
	}
	return nil
}
