// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/stackgraph/stackgraph/pkg/depgraph"
)

const (
	servicesScope   = "services."
	parametersScope = "parameters."
)

var placeholderPattern = regexp.MustCompile(`\$\{\{\s*([^{}]*?)\s*\}\}`)

// Interpolate replaces placeholders in the string parameters of nodes, in place.
//
//	${{ services.<name>.ref }}    the EnvRef of the service
//	${{ services.<name>.host }}   its NormalizedRef
//	${{ services.<name>.port }}   its target port
//	${{ services.<name>.url }}    http://host:port
//	${{ parameters.<KEY> }}       another resolved parameter of the same node
//
// A service reference adds a dependency edge from the referencing node to the service,
// unless both are the same node. Parameter references are not expanded recursively.
func Interpolate(nodes []*depgraph.Node) ([]depgraph.Edge, error) {
	var edges []depgraph.Edge
	for _, n := range nodes {
		if len(n.Parameters) == 0 {
			continue
		}
		original := maps.Clone(n.Parameters)
		for _, key := range slices.Sorted(maps.Keys(n.Parameters)) {
			s, ok := n.Parameters[key].(string)
			if !ok || !strings.Contains(s, "${{") {
				continue
			}

			var firstErr error
			expanded := placeholderPattern.ReplaceAllStringFunc(s, func(m string) string {
				if firstErr != nil {
					return m
				}
				expr := placeholderPattern.FindStringSubmatch(m)[1]
				value, target, err := evaluate(nodes, n, original, expr)
				if err != nil {
					firstErr = err
					return m
				}
				if target != nil && !target.Equals(n) {
					edges = append(edges, depgraph.Edge{From: n.Ref(), To: target.Ref(), Type: depgraph.EdgeDependency})
				}
				return value
			})
			if firstErr != nil {
				return nil, firstErr
			}
			n.Parameters[key] = expanded
		}
	}
	return edges, nil
}

// evaluate returns the value of expr as seen from n and the node it refers to, if any.
func evaluate(nodes []*depgraph.Node, n *depgraph.Node, params map[string]any, expr string) (string, *depgraph.Node, error) {
	unresolved := func(detail string) error {
		return &depgraph.StructureError{
			Kind:   depgraph.UnresolvedReference,
			From:   n.Ref(),
			Target: "${{ " + expr + " }}",
			Detail: detail,
		}
	}

	switch {
	case strings.HasPrefix(expr, parametersScope):
		key := strings.TrimPrefix(expr, parametersScope)
		value, ok := params[key]
		if !ok {
			return "", nil, unresolved(fmt.Sprintf("parameter %s has no value", key))
		}
		return fmt.Sprint(value), nil, nil

	case strings.HasPrefix(expr, servicesScope):
		rest := strings.TrimPrefix(expr, servicesScope)
		i := strings.LastIndex(rest, ".")
		if i <= 0 {
			return "", nil, unresolved("expected services.<name>.<field>")
		}
		name, field := rest[:i], rest[i+1:]
		target, err := lookupDependency(nodes, n, name)
		if err != nil {
			return "", nil, err
		}
		value, err := serviceField(target, field)
		if err != nil {
			return "", nil, unresolved(err.Error())
		}
		return value, target, nil

	default:
		return "", nil, unresolved("expected a services. or parameters. reference")
	}
}

func serviceField(target *depgraph.Node, field string) (string, error) {
	switch field {
	case "ref":
		return target.EnvRef(), nil
	case "host":
		return target.NormalizedRef(), nil
	case "port":
		return strconv.Itoa(target.Ports.Target), nil
	case "url":
		scheme := "http"
		if target.API != nil && target.API.Protocol == "https" {
			scheme = "https"
		}
		if target.Ports.Target == 0 {
			return scheme + "://" + target.NormalizedRef(), nil
		}
		return fmt.Sprintf("%s://%s:%d", scheme, target.NormalizedRef(), target.Ports.Target), nil
	default:
		return "", fmt.Errorf("unknown field %q (want ref, host, port or url)", field)
	}
}
