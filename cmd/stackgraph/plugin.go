// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stackgraph/stackgraph/internal/config"
	"github.com/stackgraph/stackgraph/internal/issue"
	"github.com/stackgraph/stackgraph/internal/plugin"
)

// newPluginCommand creates the `stackgraph plugin` command tree.
func newPluginCommand(app *App) *cobra.Command {
	pluginCmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage renderer plugins",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	pluginCmd.AddCommand(newPluginInstallCommand(app))
	return pluginCmd
}

func newPluginInstallCommand(app *App) *cobra.Command {
	var checksum string

	installCmd := &cobra.Command{
		Use:   "install <name> <url>",
		Short: "Install a renderer plugin",
		Long: `Install a renderer plugin into the plugin cache (plugins.cache_dir).

The source is either an http(s) URL of a .tar.gz archive or an oci:// reference
pulled with the configured registry tool. A previous installation is replaced
only after the new one is complete.`,
		Example: `  stackgraph plugin install compose https://example.com/compose-renderer.tar.gz --sha256 9f86d0...
  stackgraph plugin install helm oci://registry.example.com/renderers/helm:1.2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadSettings(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			installer, err := newInstaller(cfg)
			if err != nil {
				return app.fail(err)
			}

			src := plugin.Source{Name: args[0], URL: args[1], SHA256: checksum}
			app.logger.Debug("installing plugin", "name", src.Name, "dir", installer.Dir(src.Name))
			dir, err := installer.Install(cmd.Context(), src)
			if err != nil {
				return app.fail(issue.NewErrorContext().
					WithOperation("install plugin").
					WithResource(src.Name).
					Wrap(err).
					BuildError())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Installed %s into %s\n",
				SuccessStyle.Render("✓"), CmdStyle.Render(src.Name), dir)
			return nil
		},
	}

	installCmd.Flags().StringVar(&checksum, "sha256", "", "expected SHA-256 of the archive (hex)")
	return installCmd
}

func newInstaller(cfg *config.Config) (*plugin.Installer, error) {
	cacheDir, err := config.PluginCacheDir(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := plugin.NewRegistryTool(cfg.Registry.Tool)
	if err != nil {
		return nil, err
	}
	fetcher := plugin.NewFetcher(plugin.WithUserAgent(config.AppName + "/" + Version))
	return plugin.NewInstaller(cacheDir, fetcher, plugin.NewExtractor(), registry), nil
}
