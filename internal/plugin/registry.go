// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// DefaultRegistryTool is the registry command used when none is configured.
const DefaultRegistryTool = "oras"

// ErrToolNotInstalled is returned when the registry tool binary cannot be found.
var ErrToolNotInstalled = errors.New("registry tool not installed")

type (
	// RegistryTool runs an external registry client.
	RegistryTool struct {
		argv     []string
		dir      string
		lookPath func(string) (string, error)
	}

	// Result is the outcome of one registry tool invocation.
	Result struct {
		Stdout   string
		Stderr   string
		ExitCode int
	}

	// ToolError reports a registry tool invocation that exited non-zero.
	ToolError struct {
		Command  string
		ExitCode int
		Stderr   string
	}
)

// Error implements the error interface.
func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// NewRegistryTool parses command, a shell-quoted command line such as
// "oras --insecure", into the argv prefix of every invocation.
func NewRegistryTool(command string) (*RegistryTool, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultRegistryTool
	}
	argv, err := shell.Fields(command, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing registry tool command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("registry tool command %q is empty", command)
	}
	return &RegistryTool{argv: argv, lookPath: exec.LookPath}, nil
}

// Command returns the configured argv prefix.
func (t *RegistryTool) Command() []string {
	return append([]string(nil), t.argv...)
}

// InDir returns a copy of t that runs in dir, so relative file arguments resolve there.
func (t *RegistryTool) InDir(dir string) *RegistryTool {
	c := *t
	c.dir = dir
	return &c
}

// Run invokes the tool with args appended to the configured prefix.
// A missing binary yields ErrToolNotInstalled; a non-zero exit yields *ToolError
// together with the captured result.
func (t *RegistryTool) Run(ctx context.Context, args ...string) (*Result, error) {
	bin, err := t.lookPath(t.argv[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrToolNotInstalled, t.argv[0], err)
	}

	full := append(t.Command()[1:], args...)
	cmd := exec.CommandContext(ctx, bin, full...)
	cmd.Dir = t.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	res := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if runErr == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, &ToolError{Command: t.argv[0], ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return nil, fmt.Errorf("running %s: %w", t.argv[0], runErr)
}

// Push pushes files to ref.
func (t *RegistryTool) Push(ctx context.Context, ref string, files ...string) (*Result, error) {
	return t.Run(ctx, append([]string{"push", ref}, files...)...)
}

// Pull pulls ref into dir.
func (t *RegistryTool) Pull(ctx context.Context, ref, dir string) (*Result, error) {
	return t.Run(ctx, "pull", ref, "--output", dir)
}
