// SPDX-License-Identifier: MPL-2.0

package params

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/stackgraph/stackgraph/pkg/specyaml"
)

// AllServices is the scope whose values apply to every service.
const AllServices = "*"

// ErrInvalidAssignment is the sentinel error wrapped by InvalidAssignmentError.
var ErrInvalidAssignment = errors.New("invalid parameter assignment")

type (
	// Values holds provided parameter values by service name, then by key.
	// Values under AllServices apply to every service that has no value of its own.
	Values map[string]map[string]any

	// Loader reads provided values from files.
	Loader struct {
		fs     afero.Fs
		schema *specyaml.Schema
	}

	// Sources lists where provided values come from, lowest precedence first.
	Sources struct {
		ValuesFiles []string
		DotenvFiles []string
		Assignments []string
	}

	// InvalidAssignmentError is returned for a malformed [service.]KEY=VALUE assignment.
	InvalidAssignmentError struct {
		Value  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidAssignmentError) Error() string {
	return fmt.Sprintf("invalid parameter assignment %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidAssignment for errors.Is() compatibility.
func (e *InvalidAssignmentError) Unwrap() error { return ErrInvalidAssignment }

// Set stores value for key in the scope of service.
func (v Values) Set(service, key string, value any) {
	scope, ok := v[service]
	if !ok {
		scope = make(map[string]any)
		v[service] = scope
	}
	scope[key] = value
}

// For returns the values visible to service. Its own scope wins over AllServices.
func (v Values) For(service string) map[string]any {
	out := maps.Clone(v[AllServices])
	if out == nil {
		out = make(map[string]any)
	}
	maps.Copy(out, v[service])
	return out
}

// Merge copies other into v. Values of other win.
func (v Values) Merge(other Values) {
	for service, scope := range other {
		for key, value := range scope {
			v.Set(service, key, value)
		}
	}
}

// ParseAssignment parses "[service.]KEY=VALUE". The key is the segment after the last dot,
// so service names may contain dots.
func ParseAssignment(s string) (service, key, value string, err error) {
	lhs, value, found := strings.Cut(s, "=")
	if !found {
		return "", "", "", &InvalidAssignmentError{Value: s, Reason: "expected [service.]KEY=VALUE"}
	}
	service = AllServices
	key = lhs
	if i := strings.LastIndex(lhs, "."); i >= 0 {
		service, key = lhs[:i], lhs[i+1:]
		if service == "" {
			return "", "", "", &InvalidAssignmentError{Value: s, Reason: "empty service name"}
		}
	}
	if key == "" {
		return "", "", "", &InvalidAssignmentError{Value: s, Reason: "empty key"}
	}
	return service, key, value, nil
}

// FromAssignments builds Values from command-line assignments.
func FromAssignments(assignments []string) (Values, error) {
	v := make(Values)
	for _, a := range assignments {
		service, key, value, err := ParseAssignment(a)
		if err != nil {
			return nil, err
		}
		v.Set(service, key, value)
	}
	return v, nil
}

// NewLoader creates a Loader reading from fs. YAML values files are parsed with schema.
func NewLoader(fs afero.Fs, schema *specyaml.Schema) *Loader {
	return &Loader{fs: fs, schema: schema}
}

// ValuesFile reads a YAML values file. Top-level mappings are service scopes; top-level
// scalars and sequences are global values.
//
//	"*":
//	  LOG_LEVEL: info
//	api:
//	  DATABASE_URL: file:~/.secrets/db
//	REGION: eu-west-1
func (l *Loader) ValuesFile(path string) (Values, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read values file %s: %w", path, err)
	}

	var doc map[string]any
	if err := l.schema.Decode(data, path, &doc); err != nil {
		return nil, err
	}

	v := make(Values)
	for name, entry := range doc {
		scope, ok := entry.(map[string]any)
		if !ok {
			v.Set(AllServices, name, entry)
			continue
		}
		for key, value := range scope {
			v.Set(name, key, value)
		}
	}
	return v, nil
}

// DotenvFile reads a dotenv file. Every entry is a global value.
func (l *Loader) DotenvFile(path string) (Values, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dotenv file %s: %w", path, err)
	}
	entries, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse dotenv file %s: %w", path, err)
	}

	v := make(Values)
	for key, value := range entries {
		v.Set(AllServices, key, value)
	}
	return v, nil
}

// Load merges all sources: values files, then dotenv files, then assignments.
func (l *Loader) Load(src Sources) (Values, error) {
	merged := make(Values)
	for _, path := range src.ValuesFiles {
		v, err := l.ValuesFile(path)
		if err != nil {
			return nil, err
		}
		merged.Merge(v)
	}
	for _, path := range src.DotenvFiles {
		v, err := l.DotenvFile(path)
		if err != nil {
			return nil, err
		}
		merged.Merge(v)
	}
	v, err := FromAssignments(src.Assignments)
	if err != nil {
		return nil, err
	}
	merged.Merge(v)
	return merged, nil
}
