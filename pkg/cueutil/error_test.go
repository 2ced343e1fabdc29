// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()

		if err := FormatError(nil, "test.cue"); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("non-CUE error keeps its cause", func(t *testing.T) {
		t.Parallel()

		originalErr := errors.New("some error")
		err := FormatError(originalErr, "stackgraph.yml")
		if !errors.Is(err, originalErr) {
			t.Errorf("expected cause to be preserved, got %v", err)
		}
		if err.Error() != "stackgraph.yml: some error" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})
}

func TestSchemaError_Error(t *testing.T) {
	t.Parallel()

	single := &SchemaError{
		File:     "stackgraph.yml",
		Problems: []Problem{{Path: "services.api.tag", Message: "conflicting values"}},
	}
	if got := single.Error(); got != "stackgraph.yml: services.api.tag: conflicting values" {
		t.Errorf("single problem = %q", got)
	}

	multi := &SchemaError{
		File: "stackgraph.yml",
		Problems: []Problem{
			{Path: "name", Message: "incomplete value"},
			{Message: "root problem"},
		},
	}
	got := multi.Error()
	if !strings.HasPrefix(got, "stackgraph.yml: validation failed:") {
		t.Errorf("multi problem = %q", got)
	}
	if !strings.Contains(got, "\n  name: incomplete value\n  root problem") {
		t.Errorf("multi problem lines = %q", got)
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     []string
		expected string
	}{
		{name: "empty path", path: []string{}, expected: ""},
		{name: "single element", path: []string{"name"}, expected: "name"},
		{name: "nested path", path: []string{"services", "api"}, expected: "services.api"},
		{name: "list index", path: []string{"services", "api", "depends_on", "0"}, expected: "services.api.depends_on[0]"},
		{name: "numeric first element", path: []string{"0", "name"}, expected: "0.name"},
		{name: "nested lists", path: []string{"items", "0", "values", "1"}, expected: "items[0].values[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if result := formatPath(tt.path); result != tt.expected {
				t.Errorf("formatPath(%v) = %q, want %q", tt.path, result, tt.expected)
			}
		})
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := CheckFileSize(make([]byte, 100), 100, "config.cue"); err != nil {
		t.Errorf("data at exact limit: expected nil, got %v", err)
	}

	err := CheckFileSize(make([]byte, 101), 100, "config.cue")
	if err == nil {
		t.Fatal("expected error for oversized data")
	}
	for _, want := range []string{"config.cue", "101", "100"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should contain %q", err, want)
		}
	}
}
