// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stackgraph/stackgraph/internal/config"
)

// newConfigCommand creates the `stackgraph config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stackgraph configuration",
		Long: `Manage stackgraph configuration.

Configuration is stored in:
  - Linux: ~/.config/stackgraph/config.cue
  - macOS: ~/Library/Application Support/stackgraph/config.cue
  - Windows: %APPDATA%\stackgraph\config.cue

Every key can be overridden with an environment variable, e.g.
STACKGRAPH_GATEWAY_KIND=gateway.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadSettings(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			showConfig(cmd.OutOrStdout(), cfg, app.flags.configPath)
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := initConfig(force)
			if err != nil {
				return app.fail(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadSettings(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			fmt.Fprint(cmd.OutOrStdout(), config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config, explicitPath string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)

	switch {
	case explicitPath != "":
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), explicitPath)
	default:
		cfgDir, err := config.ConfigDir()
		if err != nil {
			fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
			break
		}
		cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
		if _, err := os.Stat(cfgPath); err != nil {
			fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
			break
		}
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), cfgPath)
	}

	cacheDir := string(cfg.Plugins.CacheDir)
	if resolved, err := config.PluginCacheDir(cfg); err == nil {
		cacheDir = resolved
	}

	sections := []struct {
		name   string
		values [][2]string
	}{
		{"gateway", [][2]string{
			{"kind", cfg.Gateway.Kind.String()},
			{"port", fmt.Sprintf("%d", cfg.Gateway.Port)},
		}},
		{"registry", [][2]string{{"tool", cfg.Registry.Tool}}},
		{"plugins", [][2]string{{"cache_dir", cacheDir}}},
		{"watch", [][2]string{{"debounce", cfg.Watch.Debounce.String()}}},
		{"ui", [][2]string{
			{"color_scheme", cfg.UI.ColorScheme.String()},
			{"verbose", fmt.Sprintf("%v", cfg.UI.Verbose)},
		}},
	}
	for _, s := range sections {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", keyStyle.Render(s.name))
		for _, kv := range s.values {
			fmt.Fprintf(w, "  %s: %s\n", kv[0], valueStyle.Render(kv[1]))
		}
	}
}

// initConfig writes the default configuration unless one exists and force is unset.
func initConfig(force bool) (string, error) {
	if !force {
		return config.CreateDefaultConfig("")
	}
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	if err := config.Save(config.DefaultConfig(), cfgDir); err != nil {
		return "", fmt.Errorf("failed to create config: %w", err)
	}
	return filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt), nil
}
