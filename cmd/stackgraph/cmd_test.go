// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/stackgraph/stackgraph/internal/config"
)

const shopSpec = `
name: shop
version: 1.0
services:
  web:
    ports: {target: 3000, expose: 80}
    depends_on: [api]
    parameters:
      API_URL: ${{ services.api.url }}
  api:
    ports: {target: 8080}
    depends_on: [db]
    publishes: [order.created]
    parameters:
      TOKEN:
        description: Upstream API token
      DB_PASSWORD:
        required: false
  db:
    tag: "16"
  mailer:
    subscriptions:
      order.created: /hooks/order
`

type (
	// staticConfig serves a fixed configuration.
	staticConfig struct {
		cfg *config.Config
		err error
	}

	testCLI struct {
		app    *App
		fs     afero.Fs
		stdout *bytes.Buffer
		stderr *bytes.Buffer
	}
)

func (s staticConfig) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	if s.err != nil {
		return nil, s.err
	}
	cfg := *s.cfg
	return &cfg, nil
}

// newTestCLI builds an App over an in-memory filesystem holding files.
func newTestCLI(t *testing.T, cfg *config.Config, files map[string]string) *testCLI {
	t.Helper()
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	mem := afero.NewMemMapFs()
	for path, content := range files {
		if err := afero.WriteFile(mem, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	var stdout, stderr bytes.Buffer
	app := NewApp(Dependencies{
		Config: staticConfig{cfg: cfg},
		Fs:     mem,
		Stdout: &stdout,
		Stderr: &stderr,
	})
	return &testCLI{app: app, fs: mem, stdout: &stdout, stderr: &stderr}
}

func (c *testCLI) run(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCommand(c.app)
	root.SetArgs(args)
	return root.ExecuteContext(t.Context())
}
