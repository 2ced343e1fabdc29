// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/stackgraph/stackgraph/internal/issue"
	"github.com/stackgraph/stackgraph/internal/testutil"
	"github.com/stackgraph/stackgraph/pkg/cueutil"
)

func load(t *testing.T, opts LoadOptions) (*LoadResult, error) {
	t.Helper()
	return LoadWithPath(t.Context(), opts)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	res, err := load(t, LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Path != "" {
		t.Errorf("Path = %q, want empty", res.Path)
	}
	if diff := cmp.Diff(DefaultConfig(), res.Config); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_CUEFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `
gateway: {
	kind: "gateway"
	port: 8080
}
registry: tool: "oras --plain-http"
watch: debounce: "1.5s"
ui: verbose: true
`)

	res, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := DefaultConfig()
	want.Gateway = GatewayConfig{Kind: GatewayKindGeneric, Port: 8080}
	want.Registry.Tool = "oras --plain-http"
	want.Watch.Debounce = 1500 * time.Millisecond
	want.UI.Verbose = true
	if diff := cmp.Diff(want, res.Config); diff != "" {
		t.Errorf("Config mismatch (-want +got):\n%s", diff)
	}
	if res.Path != filepath.Join(dir, "config.cue") {
		t.Errorf("Path = %q", res.Path)
	}
}

func TestLoad_SchemaViolation(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "custom.cue")
	testutil.MustWriteFile(t, path, "gateway: port: 70000\n")

	_, err := load(t, LoadOptions{ConfigFilePath: path})
	var schemaErr *cueutil.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Load() error = %v, want *cueutil.SchemaError", err)
	}
	if !strings.Contains(err.Error(), "gateway.port") {
		t.Errorf("error %q should name the field path", err)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("error should carry suggestions: %v", err)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.cue")
	testutil.MustWriteFile(t, path, "gateway: replicas: 2\n")

	if _, err := load(t, LoadOptions{ConfigFilePath: path}); err == nil {
		t.Fatal("Load() should reject unknown fields")
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := load(t, LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "absent.cue")})
	if err == nil || !strings.Contains(err.Error(), "config file not found") {
		t.Fatalf("Load() error = %v, want config file not found", err)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "config.cue"), `gateway: kind: "nginx"`+"\n")
	t.Setenv("STACKGRAPH_GATEWAY_KIND", "gateway")
	t.Setenv("STACKGRAPH_GATEWAY_PORT", "8443")
	t.Setenv("STACKGRAPH_UI_VERBOSE", "true")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Gateway.Kind != GatewayKindGeneric || cfg.Gateway.Port != 8443 || !cfg.UI.Verbose {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("STACKGRAPH_UI_COLOR_SCHEME", "neon")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Load() error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadWithPath(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoadOptions_Validate(t *testing.T) {
	t.Parallel()

	if err := (LoadOptions{}).Validate(); err != nil {
		t.Errorf("zero LoadOptions.Validate() = %v", err)
	}
	err := LoadOptions{ConfigFilePath: " ", ConfigDirPath: "\t"}.Validate()
	var optsErr *InvalidLoadOptionsError
	if !errors.As(err, &optsErr) || len(optsErr.FieldErrors) != 2 {
		t.Fatalf("Validate() = %v, want two field errors", err)
	}
	if !errors.Is(err, ErrInvalidLoadOptions) {
		t.Error("Validate() error should wrap ErrInvalidLoadOptions")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Gateway.Kind = GatewayKindGeneric
	cfg.Plugins.CacheDir = "/var/cache/stackgraph"
	cfg.Watch.Debounce = 2 * time.Second
	cfg.UI.ColorScheme = ColorSchemeDark

	if err := Save(cfg, dir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	res, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(cfg, res.Config); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateCUE_OmitsEmptyCacheDir(t *testing.T) {
	t.Parallel()

	out := GenerateCUE(DefaultConfig())
	if strings.Contains(out, "plugins") {
		t.Errorf("GenerateCUE() should omit an empty plugins block:\n%s", out)
	}
	if !strings.Contains(out, `kind: "nginx"`) {
		t.Errorf("GenerateCUE() missing gateway kind:\n%s", out)
	}
}

func TestCreateDefaultConfig_KeepsExisting(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.cue")
	testutil.MustWriteFile(t, path, `ui: color_scheme: "light"`+"\n")

	got, err := CreateDefaultConfig(dir)
	if err != nil || got != path {
		t.Fatalf("CreateDefaultConfig() = %q, %v", got, err)
	}
	res, err := load(t, LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if res.Config.UI.ColorScheme != ColorSchemeLight {
		t.Errorf("existing config was overwritten: %+v", res.Config.UI)
	}
}

func TestConfigDir_Override(t *testing.T) {
	t.Cleanup(Reset)
	SetConfigDirOverride("/tmp/stackgraph-config")

	dir, err := ConfigDir()
	if err != nil || dir != "/tmp/stackgraph-config" {
		t.Errorf("ConfigDir() = %q, %v", dir, err)
	}
}

func TestPluginCacheDir(t *testing.T) {
	home := t.TempDir()
	t.Cleanup(testutil.SetHomeDir(t, home))

	tests := []struct {
		name     string
		cacheDir CacheDirPath
		want     string
	}{
		{"absolute", "/opt/plugins", filepath.Clean("/opt/plugins")},
		{"home relative", "~/plugins", filepath.Join(home, "plugins")},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Plugins.CacheDir = tt.cacheDir
		got, err := PluginCacheDir(cfg)
		if err != nil || got != tt.want {
			t.Errorf("%s: PluginCacheDir() = %q, %v; want %q", tt.name, got, err, tt.want)
		}
	}

	got, err := PluginCacheDir(DefaultConfig())
	if err != nil {
		t.Fatalf("PluginCacheDir() error = %v", err)
	}
	if filepath.Base(got) != "plugins" || filepath.Base(filepath.Dir(got)) != AppName {
		t.Errorf("default PluginCacheDir() = %q", got)
	}
}
