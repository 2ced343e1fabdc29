// SPDX-License-Identifier: MPL-2.0

package plugin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/stackgraph/stackgraph/internal/platform"
)

// ociScheme marks plugin sources pulled with the registry tool.
const ociScheme = "oci://"

var (
	// ErrInvalidPluginName is returned for plugin names that are not safe directory names.
	ErrInvalidPluginName = errors.New("invalid plugin name")

	pluginNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]*$`)
)

type (
	// Source describes where a plugin is installed from.
	Source struct {
		Name string
		// URL is an http(s) URL of a .tar.gz archive or an oci:// artifact reference.
		URL string
		// SHA256 optionally pins the archive content. Ignored for oci:// sources.
		SHA256 string
	}

	// Installer places plugins under a cache directory, one directory per plugin.
	Installer struct {
		cacheDir  string
		fetcher   *Fetcher
		extractor *Extractor
		registry  *RegistryTool
	}
)

// NewInstaller creates an Installer. registry may be nil when oci:// sources are not needed.
func NewInstaller(cacheDir string, fetcher *Fetcher, extractor *Extractor, registry *RegistryTool) *Installer {
	return &Installer{
		cacheDir:  cacheDir,
		fetcher:   fetcher,
		extractor: extractor,
		registry:  registry,
	}
}

// Dir returns the directory plugin name is installed in.
func (i *Installer) Dir(name string) string {
	return filepath.Join(i.cacheDir, name)
}

// Install downloads and unpacks src, replacing a previous installation only when the
// new one is complete. It returns the plugin directory.
func (i *Installer) Install(ctx context.Context, src Source) (string, error) {
	if !pluginNamePattern.MatchString(src.Name) || platform.IsWindowsReservedName(src.Name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPluginName, src.Name)
	}
	if err := os.MkdirAll(i.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating plugin cache: %w", err)
	}

	staging, err := os.MkdirTemp(i.cacheDir, ".install-"+src.Name+"-*")
	if err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() {
		// Best-effort cleanup; the staging directory is renamed away on success.
		_ = os.RemoveAll(staging)
	}()

	unpacked := filepath.Join(staging, "plugin")
	if strings.HasPrefix(src.URL, ociScheme) {
		if i.registry == nil {
			return "", fmt.Errorf("%w: oci sources need a registry tool", ErrToolNotInstalled)
		}
		if _, err := i.registry.Pull(ctx, strings.TrimPrefix(src.URL, ociScheme), unpacked); err != nil {
			return "", err
		}
	} else {
		archive := filepath.Join(staging, "plugin.tar.gz")
		if err := i.fetcher.Fetch(ctx, src.URL, archive, src.SHA256); err != nil {
			return "", err
		}
		if err := i.extractor.Extract(archive, unpacked); err != nil {
			return "", err
		}
	}

	dest := i.Dir(src.Name)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("removing previous installation: %w", err)
	}
	if err := os.Rename(unpacked, dest); err != nil {
		return "", fmt.Errorf("moving plugin into place: %w", err)
	}
	return dest, nil
}
