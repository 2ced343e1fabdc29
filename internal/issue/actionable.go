// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type (
	// Hinter is implemented by errors that know how the user can fix them, such as a
	// missing parameter naming the assignment to add or a broken edge naming the
	// service to declare.
	Hinter interface {
		Hints() []string
	}

	// ActionableError is an error with context for user-facing error messages: the
	// stackgraph operation that failed, the spec file, values file or graph ref it was
	// working on, and what to try next.
	//
	// Build one with ErrorContext:
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("load specification").
	//		WithResource("./shop.yaml").
	//		WithSuggestion("Run 'stackgraph validate ./shop.yaml' for schema details").
	//		Wrap(originalErr).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "load specification" or "push graph".
		Operation string

		// Resource is the file or ref involved (optional).
		Resource string

		// Suggestions are hints given by the caller. Hints of the cause are added
		// when the error is formatted.
		Suggestions []string

		// Cause is the underlying error (optional).
		Cause error
	}

	// ErrorContext builds ActionableError values. A context may be reused with
	// different causes.
	ErrorContext struct {
		operation   string
		resource    string
		suggestions []string
		cause       error
	}
)

// NewErrorContext creates a new ErrorContext builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error implements the error interface.
func (e *ActionableError) Error() string {
	var msg strings.Builder

	msg.WriteString("failed to ")
	msg.WriteString(e.Operation)

	if e.Resource != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Resource)
	}

	if e.Cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.Cause.Error())
	}

	return msg.String()
}

// Unwrap returns the underlying cause error for use with errors.Is/As.
func (e *ActionableError) Unwrap() error {
	return e.Cause
}

// Format returns the message followed by a bulleted list of the caller's
// suggestions and the hints found in the cause. Verbose output adds the error chain.
func (e *ActionableError) Format(verbose bool) string {
	var msg strings.Builder

	msg.WriteString(e.Error())
	writeBullets(&msg, e.suggestions())

	if verbose && e.Cause != nil {
		msg.WriteString("\n\nError chain:")
		for depth, err := range chain(e.Cause) {
			fmt.Fprintf(&msg, "\n  %d. %s", depth+1, err.Error())
		}
	}

	return msg.String()
}

// HasSuggestions reports whether Format lists anything to try.
func (e *ActionableError) HasSuggestions() bool {
	return len(e.suggestions()) > 0
}

func (e *ActionableError) suggestions() []string {
	return dedupe(append(slices.Clone(e.Suggestions), Hints(e.Cause)...))
}

// Explain renders err for the terminal. The outermost ActionableError in the chain is
// formatted with its suggestions; any other error gets the hints of its tree.
func Explain(err error, verbose bool) string {
	var ae *ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	var msg strings.Builder
	msg.WriteString(err.Error())
	writeBullets(&msg, Hints(err))
	return msg.String()
}

// Hints collects the hints of every Hinter in the tree of err, in depth-first order
// and without duplicates. Joined errors are all visited.
func Hints(err error) []string {
	var hints []string
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if h, ok := err.(Hinter); ok {
			hints = append(hints, h.Hints()...)
		}
		switch u := err.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				walk(inner)
			}
		case interface{ Unwrap() error }:
			walk(u.Unwrap())
		}
	}
	walk(err)
	return dedupe(hints)
}

// WithOperation sets the operation being performed.
func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.operation = op
	return c
}

// WithResource sets the file or ref involved.
func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.resource = res
	return c
}

// WithSuggestion adds a suggestion. Can be called multiple times.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.suggestions = append(c.suggestions, sug)
	return c
}

// Wrap sets the underlying error.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.cause = err
	return c
}

// BuildError returns the ActionableError described by c, or nil when no operation
// is set.
func (c *ErrorContext) BuildError() error {
	if c.operation == "" {
		return nil
	}
	return &ActionableError{
		Operation:   c.operation,
		Resource:    c.resource,
		Suggestions: slices.Clone(c.suggestions),
		Cause:       c.cause,
	}
}

// chain lists err and each error it wraps. For a joined error only the join itself
// is listed.
func chain(err error) []error {
	var errs []error
	for ; err != nil; err = errors.Unwrap(err) {
		errs = append(errs, err)
	}
	return errs
}

func writeBullets(msg *strings.Builder, items []string) {
	if len(items) == 0 {
		return
	}
	msg.WriteString("\n")
	for _, item := range items {
		msg.WriteString("\n  • ")
		msg.WriteString(item)
	}
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
