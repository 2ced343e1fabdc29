// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/stackgraph/stackgraph/internal/config"
	"github.com/stackgraph/stackgraph/internal/params"
	"github.com/stackgraph/stackgraph/pkg/depgraph"
)

func refs(out graphOutput) []string {
	var got []string
	for _, n := range out.Nodes {
		got = append(got, n.Ref)
	}
	return got
}

func TestCompile_YAML(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(t, nil, map[string]string{"/work/shop.yaml": shopSpec})
	if err := cli.run(t, "compile", "/work/shop.yaml", "-p", "api.TOKEN=abc"); err != nil {
		t.Fatalf("compile error = %v\nstderr:\n%s", err, cli.stderr)
	}

	var out graphOutput
	if err := yaml.Unmarshal(cli.stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, cli.stdout)
	}
	wantRefs := []string{"web:latest", "api:latest", "db:16", "mailer:latest", depgraph.GatewayRef}
	if got := refs(out); !slices.Equal(got, wantRefs) {
		t.Errorf("node refs = %v, want %v", got, wantRefs)
	}
	if len(out.StartOrder) != len(wantRefs) {
		t.Fatalf("start_order = %v", out.StartOrder)
	}
	if slices.Index(out.StartOrder, "db:16") > slices.Index(out.StartOrder, "api:latest") {
		t.Errorf("start_order = %v, want db before api", out.StartOrder)
	}

	web := out.Nodes[0]
	if web.Parameters["API_URL"] != "http://api-latest:8080" {
		t.Errorf("web API_URL = %v", web.Parameters["API_URL"])
	}
	if out.Nodes[1].Parameters["TOKEN"] != "abc" {
		t.Errorf("api TOKEN = %v", out.Nodes[1].Parameters["TOKEN"])
	}
	if !slices.Contains(out.Edges, depgraph.Edge{From: "mailer:latest", To: "api:latest", Type: depgraph.EdgeNotification}) {
		t.Errorf("edges %v lack the order.created subscription", out.Edges)
	}
}

func TestCompile_GraphAliasJSON(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(t, nil, map[string]string{
		"/work/shop.yaml":   shopSpec,
		"/work/values.yaml": "api:\n  TOKEN: from-values\n",
	})
	err := cli.run(t, "graph", "/work/shop.yaml", "--values", "/work/values.yaml", "-o", "json", "--gateway", "gateway")
	if err != nil {
		t.Fatalf("graph error = %v\nstderr:\n%s", err, cli.stderr)
	}

	var out graphOutput
	if err := json.Unmarshal(cli.stdout.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, cli.stdout)
	}
	gw := out.Nodes[len(out.Nodes)-1]
	if gw.Kind != depgraph.KindGateway || gw.Ports.Expose != config.DefaultGatewayPort {
		t.Errorf("ingress = %+v, want gateway kind exposed on %d", gw.Node, config.DefaultGatewayPort)
	}
	if out.Nodes[1].Parameters["TOKEN"] != "from-values" {
		t.Errorf("api TOKEN = %v", out.Nodes[1].Parameters["TOKEN"])
	}
}

func TestCompile_ParamBeatsEnvFile(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(t, nil, map[string]string{
		"/work/shop.yaml": shopSpec,
		"/work/.env":      "TOKEN=from-dotenv\n",
	})
	if err := cli.run(t, "compile", "/work/shop.yaml", "--env-file", "/work/.env", "-o", "json"); err != nil {
		t.Fatalf("compile error = %v\nstderr:\n%s", err, cli.stderr)
	}
	var out graphOutput
	if err := json.Unmarshal(cli.stdout.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Nodes[1].Parameters["TOKEN"] != "from-dotenv" {
		t.Errorf("api TOKEN = %v, want dotenv value", out.Nodes[1].Parameters["TOKEN"])
	}

	cli.stdout.Reset()
	err := cli.run(t, "compile", "/work/shop.yaml", "--env-file", "/work/.env", "-p", "api.TOKEN=flag", "-o", "json")
	if err != nil {
		t.Fatalf("compile error = %v", err)
	}
	out = graphOutput{}
	if err := json.Unmarshal(cli.stdout.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Nodes[1].Parameters["TOKEN"] != "flag" {
		t.Errorf("api TOKEN = %v, want --param value", out.Nodes[1].Parameters["TOKEN"])
	}
}

func TestCompile_TOMLAndTable(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(t, nil, map[string]string{"/work/shop.yaml": shopSpec})
	if err := cli.run(t, "compile", "/work/shop.yaml", "-p", "TOKEN=x", "-o", "toml"); err != nil {
		t.Fatalf("compile -o toml error = %v\nstderr:\n%s", err, cli.stderr)
	}
	var doc map[string]any
	if err := toml.Unmarshal(cli.stdout.Bytes(), &doc); err != nil {
		t.Fatalf("output is not TOML: %v\n%s", err, cli.stdout)
	}
	if nodes, ok := doc["nodes"].([]any); !ok || len(nodes) != 5 {
		t.Errorf("TOML nodes = %v", doc["nodes"])
	}

	cli.stdout.Reset()
	if err := cli.run(t, "compile", "/work/shop.yaml", "-p", "TOKEN=x", "-o", "table"); err != nil {
		t.Fatalf("compile -o table error = %v", err)
	}
	table := cli.stdout.String()
	for _, want := range []string{"Nodes", "Edges", "db:16", "80->3000", "notification"} {
		if !strings.Contains(table, want) {
			t.Errorf("table output missing %q:\n%s", want, table)
		}
	}
}

func TestCompile_MissingParameter(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(t, nil, map[string]string{"/work/shop.yaml": shopSpec})
	err := cli.run(t, "compile", "/work/shop.yaml")

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("compile error = %v, want *ExitError with code 1", err)
	}
	if !errors.Is(err, params.ErrMissingParameter) {
		t.Errorf("error %v should wrap ErrMissingParameter", err)
	}
	if cli.stdout.Len() != 0 {
		t.Errorf("no graph should be written on failure, got:\n%s", cli.stdout)
	}
	if !strings.Contains(cli.stderr.String(), "Upstream API token") {
		t.Errorf("stderr should name the parameter description:\n%s", cli.stderr)
	}
	if !strings.Contains(cli.stderr.String(), "• Pass --param api.TOKEN=<value>, or set TOKEN under api in a --values file") {
		t.Errorf("stderr should suggest how to set the parameter:\n%s", cli.stderr)
	}
}

func TestCompile_StructureErrorHints(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(t, nil, map[string]string{
		"/work/broken.yaml":  "name: broken\nservices:\n  web:\n    depends_on: [ghost]\n",
		"/work/ingress.yaml": "name: ingress\nservices:\n  web:\n    ports: {target: 3000, expose: 80}\n    depends_on: [gateway]\n",
	})

	tests := []struct {
		file string
		hint string
	}{
		{"/work/broken.yaml", `• Declare a service named "ghost" or fix the reference in web:latest`},
		{"/work/ingress.yaml", `• Drop "gateway" from web:latest: the ingress depends on services, not the other way round`},
	}

	for _, tt := range tests {
		cli.stderr.Reset()
		err := cli.run(t, "compile", tt.file)
		if !depgraph.IsStructureError(err, depgraph.UnknownNode) {
			t.Fatalf("compile %s error = %v, want kind %s", tt.file, err, depgraph.UnknownNode)
		}
		if !strings.Contains(cli.stderr.String(), tt.hint) {
			t.Errorf("compile %s stderr missing %q:\n%s", tt.file, tt.hint, cli.stderr)
		}
	}
}

func TestCompile_VerboseLogsIngress(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(t, nil, map[string]string{"/work/shop.yaml": shopSpec})
	if err := cli.run(t, "compile", "--verbose", "-p", "TOKEN=x", "/work/shop.yaml"); err != nil {
		t.Fatalf("compile error = %v\nstderr:\n%s", err, cli.stderr)
	}
	for _, want := range []string{"ingress", "kind=nginx", "expose=80", "routes=1"} {
		if !strings.Contains(cli.stderr.String(), want) {
			t.Errorf("debug log missing %q:\n%s", want, cli.stderr)
		}
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"bad output format", []string{"-o", "xml"}, ErrInvalidOutputFormat},
		{"bad gateway kind", []string{"-p", "TOKEN=x", "--gateway", "traefik"}, config.ErrInvalidGatewayKind},
		{"bad assignment", []string{"-p", "TOKEN"}, params.ErrInvalidAssignment},
		{"unknown dependency", []string{"-p", "TOKEN=x", "/work/broken.yaml"}, depgraph.ErrGraphStructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cli := newTestCLI(t, nil, map[string]string{
				"/work/shop.yaml":   shopSpec,
				"/work/broken.yaml": "name: broken\nservices:\n  web:\n    depends_on: [ghost]\n",
			})
			args := append([]string{"compile", "/work/shop.yaml"}, tt.args...)
			if err := cli.run(t, args...); !errors.Is(err, tt.wantErr) {
				t.Errorf("compile error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCompile_ConfigError(t *testing.T) {
	t.Parallel()

	cli := newTestCLI(t, nil, map[string]string{"/work/shop.yaml": shopSpec})
	cli.app.Config = staticConfig{err: config.ErrInvalidConfig}

	if err := cli.run(t, "compile", "/work/shop.yaml"); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("compile error = %v, want ErrInvalidConfig", err)
	}
}

func TestWatchedFiles(t *testing.T) {
	t.Parallel()

	flags := &graphFlags{
		valuesFiles: []string{"prod.yaml", "shop.yaml"},
		envFiles:    []string{".env"},
	}
	got := watchedFiles([]string{"shop.yaml", "payments.yaml"}, flags)
	want := []string{"shop.yaml", "payments.yaml", "prod.yaml", ".env"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("watchedFiles() mismatch (-want +got):\n%s", diff)
	}
}
