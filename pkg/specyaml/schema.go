// SPDX-License-Identifier: MPL-2.0

package specyaml

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultMaxFileSize is the largest document the schema accepts (5MB).
	DefaultMaxFileSize int64 = 5 * 1024 * 1024

	floatTag = "!!float"
	strTag   = "!!str"
)

// ErrSpecParse is the sentinel error wrapped by ParseError.
var ErrSpecParse = errors.New("specification parse error")

type (
	// Schema parses specification text with the lossless float policy applied.
	// A Schema holds no mutable state and may be shared by every parse call of a process.
	Schema struct {
		maxFileSize   int64
		literalFloats bool
	}

	// Option configures a Schema.
	Option func(*Schema)

	// ParseError reports malformed specification text. The yaml cause carries the line.
	ParseError struct {
		File string
		Err  error
	}
)

// NewSchema constructs the specification schema.
func NewSchema(opts ...Option) *Schema {
	s := &Schema{
		maxFileSize:   DefaultMaxFileSize,
		literalFloats: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithMaxFileSize overrides DefaultMaxFileSize.
func WithMaxFileSize(size int64) Option {
	return func(s *Schema) {
		s.maxFileSize = size
	}
}

// WithNumericFloats disables literal float preservation, so every float scalar decodes
// as a number. Used by callers that need plain YAML 1.2 semantics.
func WithNumericFloats() Option {
	return func(s *Schema) {
		s.literalFloats = false
	}
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

// Unwrap returns both ErrSpecParse and the yaml cause for errors.Is/As.
func (e *ParseError) Unwrap() []error { return []error{ErrSpecParse, e.Err} }

// Parse parses data into a yaml document node with the float policy applied.
// An empty document yields a node of zero Kind.
func (s *Schema) Parse(data []byte, filename string) (*yaml.Node, error) {
	if filename == "" {
		filename = "<input>"
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, &ParseError{
			File: filename,
			Err:  fmt.Errorf("file size %d bytes exceeds maximum %d bytes", len(data), s.maxFileSize),
		}
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{File: filename, Err: err}
	}
	if s.literalFloats {
		preserveLiteralFloats(&root)
	}
	return &root, nil
}

// Decode parses data and decodes it into out. Empty documents leave out untouched.
func (s *Schema) Decode(data []byte, filename string, out any) error {
	root, err := s.Parse(data, filename)
	if err != nil {
		return err
	}
	return s.DecodeNode(root, filename, out)
}

// DecodeNode decodes a node returned by Parse into out.
func (s *Schema) DecodeNode(root *yaml.Node, filename string, out any) error {
	if root == nil || root.Kind == 0 {
		return nil
	}
	if err := root.Decode(out); err != nil {
		if filename == "" {
			filename = "<input>"
		}
		return &ParseError{File: filename, Err: err}
	}
	return nil
}

// preserveLiteralFloats re-tags float scalars as strings when printing the parsed number
// would not reproduce the original text.
func preserveLiteralFloats(n *yaml.Node) {
	switch n.Kind {
	case yaml.DocumentNode, yaml.SequenceNode, yaml.MappingNode:
		for _, child := range n.Content {
			preserveLiteralFloats(child)
		}
	case yaml.ScalarNode:
		if n.ShortTag() != floatTag {
			return
		}
		if _, ok := roundTrips(n.Value); !ok {
			n.Tag = strTag
		}
	case yaml.AliasNode:
		// The anchored node is visited where it is defined.
	}
}
