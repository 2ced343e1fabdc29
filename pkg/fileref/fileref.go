// SPDX-License-Identifier: MPL-2.0

// Package fileref resolves configuration values that refer to the content of a file.
//
// A value of the form "file:<path>" is replaced by the content of <path> with trailing
// whitespace removed. A leading "~" in the path expands to the user's home directory and
// relative paths resolve against the working directory. Any other value passes through.
package fileref

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/afero"
)

// Prefix marks a value as a file reference.
const Prefix = "file:"

// ErrFileReference is the sentinel error wrapped by ReadError.
var ErrFileReference = errors.New("file reference error")

type (
	// Resolver resolves file references against a filesystem.
	Resolver struct {
		fs      afero.Fs
		workDir string
		homeDir string
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// ReadError is returned when a referenced file cannot be read.
	// Path is the expanded, absolute path that was read.
	ReadError struct {
		Value string
		Path  string
		Err   error
	}
)

// New creates a Resolver backed by the OS filesystem, the process working directory
// and the current user's home directory. Options override each of them.
func New(opts ...Option) *Resolver {
	r := &Resolver{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(r)
	}
	if r.workDir == "" {
		if wd, err := os.Getwd(); err == nil {
			r.workDir = wd
		}
	}
	if r.homeDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			r.homeDir = home
		}
	}
	return r
}

// WithFs sets the filesystem files are read from.
func WithFs(fs afero.Fs) Option {
	return func(r *Resolver) {
		r.fs = fs
	}
}

// WithWorkDir sets the directory relative paths resolve against.
func WithWorkDir(dir string) Option {
	return func(r *Resolver) {
		r.workDir = dir
	}
}

// WithHomeDir sets the directory "~" expands to.
func WithHomeDir(dir string) Option {
	return func(r *Resolver) {
		r.homeDir = dir
	}
}

// Error implements the error interface.
func (e *ReadError) Error() string {
	return fmt.Sprintf("failed to read file reference %q at %s: %v", e.Value, e.Path, e.Err)
}

// Unwrap returns ErrFileReference and the I/O cause, so errors.Is(err, fs.ErrNotExist) works.
func (e *ReadError) Unwrap() []error { return []error{ErrFileReference, e.Err} }

// IsReference reports whether value carries the file reference prefix.
func IsReference(value string) bool {
	return strings.HasPrefix(value, Prefix)
}

// Resolve returns the referenced file content for "file:" values and value itself otherwise.
func (r *Resolver) Resolve(value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}

	path := r.Path(strings.TrimPrefix(value, Prefix))
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return "", &ReadError{Value: value, Path: path, Err: err}
	}
	return strings.TrimRightFunc(string(data), unicode.IsSpace), nil
}

// ResolveAny applies Resolve to string values and returns every other value unchanged.
func (r *Resolver) ResolveAny(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	return r.Resolve(s)
}

// Path expands a leading "~" and makes path absolute against the working directory.
func (r *Resolver) Path(path string) string {
	switch {
	case path == "~":
		path = r.homeDir
	case strings.HasPrefix(path, "~/"), strings.HasPrefix(path, `~\`):
		path = filepath.Join(r.homeDir, path[2:])
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.workDir, path)
	}
	return filepath.Clean(path)
}
