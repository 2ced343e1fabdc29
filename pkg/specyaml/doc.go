// SPDX-License-Identifier: MPL-2.0

// Package specyaml provides the YAML schema used to parse stackgraph specification documents.
//
// The schema differs from plain gopkg.in/yaml.v3 decoding in one way: scalars that resolve to
// floating-point numbers are kept as their literal text whenever the number would not print
// back the same way. Version-like values such as 1.0 or 2.10 therefore survive as strings
// instead of silently becoming 1 and 2.1.
//
// A Schema is built once by the caller (usually at CLI start-up) and passed to every parse call:
//
//	schema := specyaml.NewSchema()
//
//	var doc map[string]any
//	if err := schema.Decode(data, "stackgraph.yml", &doc); err != nil {
//	    return err // *ParseError, carries the file and yaml line
//	}
package specyaml
