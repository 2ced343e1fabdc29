// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
)

type tarEntry struct {
	name string
	body string
	dir  bool
}

func buildArchive(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Mode: 0o644, Size: int64(len(e.body)), Typeflag: tar.TypeReg}
		if e.dir {
			hdr = &tar.Header{Name: e.name, Mode: 0o755, Typeflag: tar.TypeDir}
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if !e.dir {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeArchive(t *testing.T, entries []tarEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plugin.tar.gz")
	if err := os.WriteFile(path, buildArchive(t, entries), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	src := writeArchive(t, []tarEntry{
		{name: "bin/", dir: true},
		{name: "bin/render", body: "#!/bin/sh\necho render\n"},
		{name: "plugin.yml", body: "name: compose\n"},
	})
	dest := filepath.Join(t.TempDir(), "out")

	if err := NewExtractor().Extract(src, dest); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dest, "plugin.yml"))
	if err != nil || string(data) != "name: compose\n" {
		t.Errorf("plugin.yml = %q, %v", data, err)
	}
	if _, err := os.Stat(filepath.Join(dest, "bin", "render")); err != nil {
		t.Errorf("bin/render not extracted: %v", err)
	}
}

func TestExtractor_RejectsTraversal(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"../evil", "a/../../evil", "/etc/evil"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			src := writeArchive(t, []tarEntry{{name: name, body: "x"}})
			err := NewExtractor().Extract(src, filepath.Join(t.TempDir(), "out"))
			if !errors.Is(err, ErrUnsafeArchive) {
				t.Errorf("Extract() error = %v, want ErrUnsafeArchive", err)
			}
		})
	}
}

func TestExtractor_NotGzip(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "plain.txt")
	if err := os.WriteFile(src, []byte("not an archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := NewExtractor().Extract(src, t.TempDir()); err == nil {
		t.Error("expected error for non-gzip input")
	}
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	payload := []byte("plugin bytes")
	sum := sha256.Sum256(payload)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("User-Agent") != "stackgraph-test" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(WithHTTPClient(srv.Client()), WithUserAgent("stackgraph-test"))
	dir := t.TempDir()

	t.Run("downloads with checksum", func(t *testing.T) {
		dest := filepath.Join(dir, "nested", "ok.bin")
		if err := f.Fetch(context.Background(), srv.URL+"/ok", dest, hex.EncodeToString(sum[:])); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if got, _ := os.ReadFile(dest); !bytes.Equal(got, payload) {
			t.Errorf("content = %q", got)
		}
	})

	t.Run("checksum mismatch leaves nothing behind", func(t *testing.T) {
		dest := filepath.Join(dir, "bad.bin")
		err := f.Fetch(context.Background(), srv.URL+"/ok", dest, "00")
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("Fetch() error = %v, want ErrChecksumMismatch", err)
		}
		if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
			t.Errorf("destination exists after failed fetch: %v", statErr)
		}
	})

	t.Run("http error", func(t *testing.T) {
		err := f.Fetch(context.Background(), srv.URL+"/missing?token=secret", filepath.Join(dir, "m.bin"), "")
		if err == nil {
			t.Fatal("expected error for 404")
		}
		if bytes.Contains([]byte(err.Error()), []byte("secret")) {
			t.Errorf("error leaks the query string: %v", err)
		}
	})
}

func TestFetcher_Fetch_RejectsOversizedBody(t *testing.T) {
	t.Parallel()

	payload := []byte("0123456789")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	tests := []struct {
		name     string
		maxBytes int64
		wantErr  bool
	}{
		{"body at the limit", int64(len(payload)), false},
		{"body over the limit", int64(len(payload)) - 1, true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := NewFetcher(WithHTTPClient(srv.Client()))
			f.maxBytes = tt.maxBytes
			dest := filepath.Join(dir, strings.Repeat("x", i+1)+".bin")

			err := f.Fetch(context.Background(), srv.URL, dest, "")
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Fetch() error = %v", err)
				}
				if got, _ := os.ReadFile(dest); !bytes.Equal(got, payload) {
					t.Errorf("content = %q", got)
				}
				return
			}
			if !errors.Is(err, ErrDownloadTooLarge) {
				t.Fatalf("Fetch() error = %v, want ErrDownloadTooLarge", err)
			}
			if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
				t.Errorf("destination exists after oversized fetch: %v", statErr)
			}
		})
	}
}

func TestInstaller_Install(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, []tarEntry{{name: "plugin.yml", body: "name: compose\n"}})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(archive)
	}))
	t.Cleanup(srv.Close)

	cache := t.TempDir()
	inst := NewInstaller(cache, NewFetcher(WithHTTPClient(srv.Client())), NewExtractor(), nil)

	dir, err := inst.Install(context.Background(), Source{Name: "compose", URL: srv.URL + "/compose.tar.gz"})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if dir != filepath.Join(cache, "compose") {
		t.Errorf("Install() dir = %q", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "plugin.yml")); err != nil {
		t.Errorf("plugin.yml missing: %v", err)
	}

	// Reinstalling replaces the previous directory.
	if _, err := inst.Install(context.Background(), Source{Name: "compose", URL: srv.URL + "/compose.tar.gz"}); err != nil {
		t.Fatalf("second Install() error = %v", err)
	}

	if _, err := inst.Install(context.Background(), Source{Name: "../up", URL: srv.URL}); !errors.Is(err, ErrInvalidPluginName) {
		t.Errorf("Install(../up) error = %v, want ErrInvalidPluginName", err)
	}
	if _, err := inst.Install(context.Background(), Source{Name: "nul", URL: srv.URL}); !errors.Is(err, ErrInvalidPluginName) {
		t.Errorf("Install(nul) error = %v, want ErrInvalidPluginName", err)
	}
	if _, err := inst.Install(context.Background(), Source{Name: "oci", URL: "oci://ghcr.io/acme/p:1"}); !errors.Is(err, ErrToolNotInstalled) {
		t.Errorf("Install(oci) without registry error = %v, want ErrToolNotInstalled", err)
	}
}

func TestNewRegistryTool(t *testing.T) {
	t.Parallel()

	tool, err := NewRegistryTool(`oras --plain-http --registry-config "/etc/my config.json"`)
	if err != nil {
		t.Fatalf("NewRegistryTool() error = %v", err)
	}
	want := []string{"oras", "--plain-http", "--registry-config", "/etc/my config.json"}
	got := tool.Command()
	if len(got) != len(want) {
		t.Fatalf("Command() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Command()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	def, err := NewRegistryTool("")
	if err != nil || def.Command()[0] != DefaultRegistryTool {
		t.Errorf("default tool = %v, %v", def, err)
	}
	if _, err := NewRegistryTool(`oras "unterminated`); err == nil {
		t.Error("expected error for unbalanced quotes")
	}
}

func TestRegistryTool_NotInstalled(t *testing.T) {
	t.Parallel()

	tool, err := NewRegistryTool("registry-tool-that-does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	tool.lookPath = func(string) (string, error) { return "", exec.ErrNotFound }

	_, err = tool.Push(context.Background(), "ghcr.io/acme/graph:1", "graph.yml")
	if !errors.Is(err, ErrToolNotInstalled) {
		t.Errorf("Push() error = %v, want ErrToolNotInstalled", err)
	}
}

func TestRegistryTool_Run(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX utilities")
	}

	tool, err := NewRegistryTool("echo registry")
	if err != nil {
		t.Fatal(err)
	}
	res, err := tool.Run(context.Background(), "push", "ref")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "registry push ref\n" || res.ExitCode != 0 {
		t.Errorf("Run() = %+v", res)
	}

	failing, err := NewRegistryTool("false")
	if err != nil {
		t.Fatal(err)
	}
	res, err = failing.Run(context.Background())
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.ExitCode != 1 || res.ExitCode != 1 {
		t.Errorf("Run(false) = %+v, %v", res, err)
	}
}

func TestRegistryTool_InDir(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX utilities")
	}

	dir, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	base, err := NewRegistryTool("pwd")
	if err != nil {
		t.Fatal(err)
	}
	res, err := base.InDir(dir).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(res.Stdout); got != dir {
		t.Errorf("pwd = %q, want %q", got, dir)
	}
	if base.dir != "" {
		t.Error("InDir() must not modify the receiver")
	}
}
