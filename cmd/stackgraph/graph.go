// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/stackgraph/stackgraph/internal/compiler"
	"github.com/stackgraph/stackgraph/internal/config"
	"github.com/stackgraph/stackgraph/internal/issue"
	"github.com/stackgraph/stackgraph/internal/params"
	"github.com/stackgraph/stackgraph/pkg/archspec"
	"github.com/stackgraph/stackgraph/pkg/depgraph"
	"github.com/stackgraph/stackgraph/pkg/fileref"
)

type (
	// graphFlags are the inputs shared by every command that compiles a graph.
	graphFlags struct {
		valuesFiles []string
		envFiles    []string
		params      []string
		gatewayKind string
	}

	// graphOutput is a compiled graph as written by output writers.
	graphOutput struct {
		depgraph.Document `yaml:",inline"`
		// StartOrder lists refs so that every node follows its dependencies.
		StartOrder []string `json:"start_order" yaml:"start_order" toml:"start_order"`
	}
)

func (f *graphFlags) register(flags *pflag.FlagSet) {
	flags.StringArrayVar(&f.valuesFiles, "values", nil, "YAML values file (repeatable, later files win)")
	flags.StringArrayVar(&f.envFiles, "env-file", nil, "dotenv file with global values (repeatable)")
	flags.StringArrayVarP(&f.params, "param", "p", nil, "parameter value as [service.]KEY=VALUE (repeatable)")
	flags.StringVar(&f.gatewayKind, "gateway", "", "ingress kind for exposed services: nginx or gateway (default from config)")
}

// loadSpecs parses every specification file.
func (a *App) loadSpecs(paths []string) ([]*archspec.Spec, error) {
	if len(paths) == 0 {
		return nil, newServiceError(fmt.Errorf("no specification files given"), issue.SpecNotFoundId, "")
	}

	specs := make([]*archspec.Spec, 0, len(paths))
	for _, path := range paths {
		spec, err := archspec.ParseFile(a.Fs, a.schema, path)
		if err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load specification").
				WithResource(path).
				WithSuggestion(fmt.Sprintf("Run 'stackgraph validate %s' to list every problem in the file", path)).
				Wrap(err).
				BuildError()
		}
		a.logger.Debug("loaded specification", "file", path, "name", spec.Name, "services", len(spec.Services))
		specs = append(specs, spec)
	}
	return specs, nil
}

// ingressDefaults derives the synthesized ingress from configuration and the --gateway flag.
func ingressDefaults(cfg *config.Config, override string) (compiler.IngressDefaults, error) {
	kind := cfg.Gateway.Kind
	if override != "" {
		kind = config.GatewayKind(override)
		if valid, errs := kind.IsValid(); !valid {
			return compiler.IngressDefaults{}, errs[0]
		}
	}

	nodeKind := depgraph.KindNginx
	if kind == config.GatewayKindGeneric {
		nodeKind = depgraph.KindGateway
	}
	return compiler.IngressDefaults{
		Kind: nodeKind,
		Options: compiler.NodeOptions{
			Ports: depgraph.Ports{Target: compiler.DefaultIngressPort, Expose: cfg.Gateway.Port},
		},
	}, nil
}

// buildGraph runs one compilation pass over the given specification files.
func (a *App) buildGraph(ctx context.Context, cfg *config.Config, paths []string, f *graphFlags) (*graphOutput, error) {
	specs, err := a.loadSpecs(paths)
	if err != nil {
		return nil, err
	}

	values, err := params.NewLoader(a.Fs, a.schema).Load(params.Sources{
		ValuesFiles: f.valuesFiles,
		DotenvFiles: f.envFiles,
		Assignments: f.params,
	})
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load parameter values").
			WithSuggestion("Values files map service names to KEY: value pairs; top-level scalars apply to every service").
			WithSuggestion("Assignments use the form [service.]KEY=VALUE").
			Wrap(err).
			BuildError()
	}

	ingress, err := ingressDefaults(cfg, f.gatewayKind)
	if err != nil {
		return nil, err
	}

	resolver := params.NewResolver(fileref.New(fileref.WithFs(a.Fs)))
	c := compiler.New(resolver,
		compiler.WithLogger(a.logger.WithPrefix("compiler")),
		compiler.WithIngress(ingress),
	)

	g, err := c.Compile(ctx, compiler.Input{Specs: specs, Values: values})
	if err != nil {
		return nil, err
	}

	order, err := g.StartOrder()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("compiled graph", "nodes", g.Len(), "edges", len(g.Edges()))
	if gw, ok := g.Gateway(); ok {
		a.logger.Debug("ingress", "kind", gw.Kind, "name", gw.Name, "expose", gw.Ports.Expose,
			"routes", len(g.EdgesFrom(depgraph.GatewayRef)))
	}

	return &graphOutput{Document: g.Document(), StartOrder: order}, nil
}
