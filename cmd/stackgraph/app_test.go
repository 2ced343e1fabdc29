// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/stackgraph/stackgraph/internal/config"
	"github.com/stackgraph/stackgraph/pkg/specyaml"
)

func TestNewApp_DefaultSchema(t *testing.T) {
	t.Parallel()

	app := NewApp(Dependencies{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	if app.schema == nil {
		t.Fatal("NewApp() should build a schema")
	}
}

func TestApp_SchemaSharedByCommands(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	files := map[string]string{
		"/work/shop.yaml":   shopSpec,
		"/work/values.yaml": "api:\n  TOKEN: " + strings.Repeat("x", len(shopSpec)) + "\n",
	}
	for path, content := range files {
		if err := afero.WriteFile(mem, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var stdout, stderr bytes.Buffer
	cli := &testCLI{
		app: NewApp(Dependencies{
			Config: staticConfig{cfg: config.DefaultConfig()},
			Fs:     mem,
			Stdout: &stdout,
			Stderr: &stderr,
			Schema: specyaml.NewSchema(specyaml.WithMaxFileSize(int64(len(shopSpec)))),
		}),
		fs:     mem,
		stdout: &stdout,
		stderr: &stderr,
	}

	if err := cli.run(t, "validate", "/work/shop.yaml"); err != nil {
		t.Fatalf("validate error = %v\nstderr:\n%s", err, cli.stderr)
	}

	// The values file is larger than the injected limit, so the loader must use it too.
	err := cli.run(t, "compile", "--values", "/work/values.yaml", "/work/shop.yaml")
	if !errors.Is(err, specyaml.ErrSpecParse) {
		t.Fatalf("compile error = %v, want ErrSpecParse", err)
	}
	if !strings.Contains(err.Error(), "exceeds maximum") {
		t.Errorf("compile error = %v, want the size limit", err)
	}
}
