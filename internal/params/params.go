// SPDX-License-Identifier: MPL-2.0

package params

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/stackgraph/stackgraph/pkg/archspec"
	"github.com/stackgraph/stackgraph/pkg/fileref"
)

// ErrMissingParameter is the sentinel error wrapped by MissingParameterError.
var ErrMissingParameter = errors.New("missing required parameter")

type (
	// ServiceEnv is the contract of one configuration parameter of a service.
	ServiceEnv struct {
		Key         string
		Name        string
		Description string
		// Default is nil when the parameter has no default.
		Default  any
		Required bool
	}

	// MissingParameterError reports a required parameter that received no value.
	MissingParameterError struct {
		Service     string
		Key         string
		Description string
	}

	// Resolver computes final parameter values.
	Resolver struct {
		files *fileref.Resolver
	}
)

// NewServiceEnv converts a declared parameter. Name falls back to key.
func NewServiceEnv(key string, p archspec.Parameter) ServiceEnv {
	name := p.Name
	if name == "" {
		name = key
	}
	return ServiceEnv{
		Key:         key,
		Name:        name,
		Description: p.Description,
		Default:     p.Default,
		Required:    p.IsRequired(),
	}
}

// ServiceEnvs converts every parameter declared by svc, sorted by key.
func ServiceEnvs(svc *archspec.Service) []ServiceEnv {
	envs := make([]ServiceEnv, 0, len(svc.Parameters))
	for _, key := range svc.ParameterKeys() {
		envs = append(envs, NewServiceEnv(key, svc.Parameters[key]))
	}
	return envs
}

// Error implements the error interface. The message is always two lines: the owning
// service, then the parameter key with its description.
func (e *MissingParameterError) Error() string {
	desc := e.Description
	if desc == "" {
		desc = "(no description)"
	}
	return fmt.Sprintf("required parameter missing for service %q\n  %s: %s", e.Service, e.Key, desc)
}

// Unwrap returns ErrMissingParameter for errors.Is() compatibility.
func (e *MissingParameterError) Unwrap() error { return ErrMissingParameter }

// Hints names the assignment that would satisfy the parameter.
func (e *MissingParameterError) Hints() []string {
	return []string{
		fmt.Sprintf("Pass --param %s.%s=<value>, or set %s under %s in a --values file", e.Service, e.Key, e.Key, e.Service),
	}
}

// NewResolver creates a Resolver that expands file references with files.
func NewResolver(files *fileref.Resolver) *Resolver {
	return &Resolver{files: files}
}

// Resolve computes the value of env for service. raw is the provided value and present
// reports whether one was provided; a nil raw value counts as not provided. ok is false
// when the parameter is optional, has no default and received no value.
func (r *Resolver) Resolve(service string, env ServiceEnv, raw any, present bool) (value any, ok bool, err error) {
	switch {
	case present && raw != nil:
		value, err = r.files.ResolveAny(raw)
		if err != nil {
			return nil, false, err
		}
		return value, true, nil
	case env.Default != nil:
		return env.Default, true, nil
	case env.Required:
		return nil, false, &MissingParameterError{Service: service, Key: env.Key, Description: env.Description}
	default:
		return nil, false, nil
	}
}

// ResolveAll resolves envs in key order against provided. File read errors abort at
// once; missing parameters are collected and returned together.
func (r *Resolver) ResolveAll(service string, envs []ServiceEnv, provided map[string]any) (map[string]any, error) {
	sorted := slices.SortedFunc(slices.Values(envs), func(a, b ServiceEnv) int {
		return strings.Compare(a.Key, b.Key)
	})

	resolved := make(map[string]any, len(envs))
	var missing []error
	for _, env := range sorted {
		raw, present := provided[env.Key]
		value, ok, err := r.Resolve(service, env, raw, present)
		if err != nil {
			if errors.Is(err, ErrMissingParameter) {
				missing = append(missing, err)
				continue
			}
			return nil, fmt.Errorf("service %q parameter %s: %w", service, env.Key, err)
		}
		if ok {
			resolved[env.Key] = value
		}
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}
	return resolved, nil
}

// Undeclared returns the provided keys that service does not declare, sorted.
func Undeclared(envs []ServiceEnv, provided map[string]any) []string {
	declared := make(map[string]struct{}, len(envs))
	for _, env := range envs {
		declared[env.Key] = struct{}{}
	}
	var out []string
	for _, key := range slices.Sorted(maps.Keys(provided)) {
		if _, ok := declared[key]; !ok {
			out = append(out, key)
		}
	}
	return out
}
