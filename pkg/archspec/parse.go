// SPDX-License-Identifier: MPL-2.0

package archspec

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/stackgraph/stackgraph/pkg/cueutil"
	"github.com/stackgraph/stackgraph/pkg/specyaml"
)

var (
	//go:embed archspec_schema.cue
	specSchema []byte

	// ErrInvalidSpec is the sentinel error wrapped by InvalidSpecError.
	ErrInvalidSpec = errors.New("invalid specification")

	errEmptyDocument = errors.New("document is empty")
)

// InvalidSpecError is returned when a well-formed YAML document does not match the
// specification schema. Err is usually a *cueutil.SchemaError listing field paths.
type InvalidSpecError struct {
	File string
	Err  error
}

// Error implements the error interface.
func (e *InvalidSpecError) Error() string {
	var se *cueutil.SchemaError
	if errors.As(e.Err, &se) {
		return "invalid specification " + se.Error()
	}
	return fmt.Sprintf("invalid specification %s: %v", e.File, e.Err)
}

// Unwrap returns ErrInvalidSpec and the underlying cause.
func (e *InvalidSpecError) Unwrap() []error { return []error{ErrInvalidSpec, e.Err} }

// Parse parses and validates a specification document.
//
// Parsing happens in three steps: the schema turns text into a YAML node tree with
// literal floats preserved, the generic form of that tree is validated against #Spec,
// and the tree is decoded into Spec.
func Parse(schema *specyaml.Schema, data []byte, filename string) (*Spec, error) {
	root, err := schema.Parse(data, filename)
	if err != nil {
		return nil, err
	}
	if root.Kind == 0 {
		return nil, &InvalidSpecError{File: filename, Err: errEmptyDocument}
	}

	var generic any
	if err := schema.DecodeNode(root, filename, &generic); err != nil {
		return nil, err
	}
	if _, err := cueutil.ValidateValue(specSchema, "#Spec", generic, cueutil.WithFilename(filename)); err != nil {
		return nil, &InvalidSpecError{File: filename, Err: err}
	}

	var spec Spec
	if err := schema.DecodeNode(root, filename, &spec); err != nil {
		return nil, err
	}
	spec.File = filename
	return &spec, nil
}

// ParseFile reads path from fs and parses it.
func ParseFile(fs afero.Fs, schema *specyaml.Schema, path string) (*Spec, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read specification at %s: %w", path, err)
	}
	return Parse(schema, data, path)
}
