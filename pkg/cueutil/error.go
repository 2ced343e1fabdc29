// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue/errors"
)

type (
	// SchemaError lists the problems CUE reported for one input.
	SchemaError struct {
		File     string
		Problems []Problem
		// Cause is set when the failure did not come from CUE.
		Cause error
	}

	// Problem is a single CUE diagnostic with its field path in JSON-path notation.
	Problem struct {
		Path    string
		Message string
	}
)

// Error renders "<file>: <path>: <message>" for one problem and an indented list otherwise.
func (e *SchemaError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.File, e.Cause)
	}
	lines := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		lines[i] = p.String()
	}
	if len(lines) == 1 {
		return fmt.Sprintf("%s: %s", e.File, lines[0])
	}
	return fmt.Sprintf("%s: validation failed:\n  %s", e.File, strings.Join(lines, "\n  "))
}

// Unwrap returns the non-CUE cause, if any.
func (e *SchemaError) Unwrap() error { return e.Cause }

// String renders the problem as "<path>: <message>", or just the message for root problems.
func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// FormatError converts a CUE error into a *SchemaError whose problems carry JSON paths.
//
// Examples:
//   - stackgraph.yml: services.api.ports.target: invalid value 70000 (out of bound <=65535)
//   - config.cue: gateway.kind: conflicting values "nginx" and "traefik"
func FormatError(err error, filePath string) error {
	if err == nil {
		return nil
	}

	var cueErr errors.Error
	if !errors.As(err, &cueErr) {
		return &SchemaError{File: filePath, Cause: err}
	}
	cueErrors := errors.Errors(err)

	se := &SchemaError{File: filePath}
	for _, e := range cueErrors {
		pathStr := formatPath(errors.Path(e))
		msg := e.Error()

		// CUE sometimes repeats the path at the start of the message.
		if pathStr != "" && strings.HasPrefix(msg, pathStr) {
			msg = strings.TrimPrefix(msg, pathStr)
			msg = strings.TrimPrefix(msg, ":")
			msg = strings.TrimSpace(msg)
		}
		se.Problems = append(se.Problems, Problem{Path: pathStr, Message: msg})
	}
	return se
}

// formatPath converts a CUE error path to JSON-path notation for user-facing messages.
// CUE reports paths as string slices where numeric elements are list indices:
// ["services", "api", "depends_on", "0"] becomes "services.api.depends_on[0]".
func formatPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	var result strings.Builder
	for i, part := range path {
		switch {
		case i > 0 && isIndex(part):
			result.WriteString("[" + part + "]")
		case i > 0:
			result.WriteString("." + part)
		default:
			result.WriteString(part)
		}
	}

	return result.String()
}

func isIndex(part string) bool {
	if part == "" {
		return false
	}
	for _, c := range part {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// CheckFileSize returns an error when data is larger than maxSize.
func CheckFileSize(data []byte, maxSize int64, filename string) error {
	if int64(len(data)) > maxSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes",
			filename, len(data), maxSize)
	}
	return nil
}
