// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"github.com/stackgraph/stackgraph/internal/params"
	"github.com/stackgraph/stackgraph/pkg/archspec"
	"github.com/stackgraph/stackgraph/pkg/depgraph"
)

type (
	// Input is everything one compilation pass reads.
	Input struct {
		// Specs are merged in order; a later definition of the same ref wins.
		Specs  []*archspec.Spec
		Values params.Values
	}

	// Compiler compiles specification documents into graphs.
	Compiler struct {
		params  *params.Resolver
		logger  *log.Logger
		ingress IngressDefaults
	}

	// Option configures a Compiler.
	Option func(*Compiler)
)

// New creates a Compiler that resolves parameters with resolver.
func New(resolver *params.Resolver, opts ...Option) *Compiler {
	c := &Compiler{
		params: resolver,
		logger: log.NewWithOptions(io.Discard, log.Options{Prefix: "compiler"}),
		ingress: IngressDefaults{
			Kind: depgraph.KindNginx,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithLogger sets the logger compilation notices are written to.
func WithLogger(logger *log.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// WithIngress sets the ingress synthesized for exposed services.
func WithIngress(defaults IngressDefaults) Option {
	return func(c *Compiler) {
		c.ingress = defaults
	}
}

// Compile runs one compilation pass. Missing parameters of all services are reported
// together; every other failure stops the pass.
func (c *Compiler) Compile(ctx context.Context, in Input) (*depgraph.Graph, error) {
	asm := NewAssembler(c.logger)
	if err := c.register(ctx, asm, in); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	edges, err := BuildEdges(asm.Nodes())
	if err != nil {
		return nil, err
	}
	if err := asm.AddEdges(edges); err != nil {
		return nil, err
	}

	implicit, err := Interpolate(asm.Nodes())
	if err != nil {
		return nil, err
	}
	if err := asm.AddEdges(implicit); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := asm.Finalize(c.ingress)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("graph compiled", "nodes", g.Len(), "edges", len(g.Edges()))
	return g, nil
}

// register builds and registers the nodes of every spec.
func (c *Compiler) register(ctx context.Context, asm *Assembler, in Input) error {
	var missing []error
	for _, spec := range in.Specs {
		if err := ctx.Err(); err != nil {
			return err
		}
		logger := c.logger.With("spec", spec.File)

		if spec.Gateway != nil {
			gw, err := NewIngressNode(spec.Gateway.Kind.NodeKind(), GatewayOptions(spec.Gateway))
			if err != nil {
				return err
			}
			asm.AddNode(gw)
		}

		for i := range spec.Services {
			svc := &spec.Services[i]
			envs := params.ServiceEnvs(svc)
			provided := in.Values.For(svc.Name)
			if extra := params.Undeclared(envs, in.Values[svc.Name]); len(extra) > 0 {
				logger.Warn("ignoring values for undeclared parameters", "service", svc.Name, "keys", extra)
			}

			resolved, err := c.params.ResolveAll(svc.Name, envs, provided)
			if err != nil {
				if !errors.Is(err, params.ErrMissingParameter) {
					return err
				}
				missing = append(missing, err)
				continue
			}

			node, err := NewServiceNode(ServiceOptions(svc, resolved))
			if err != nil {
				return err
			}
			logger.Debug("registering service", "ref", node.Ref())
			asm.AddNode(node)
		}
	}
	return errors.Join(missing...)
}
