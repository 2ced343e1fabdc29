// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "stackgraph",
		Short: "Compile architecture specifications into dependency graphs",
		Long: TitleStyle.Render("stackgraph") + SubtitleStyle.Render(" - compile architecture specifications into dependency graphs") + `

stackgraph reads YAML specifications describing services, the interfaces
they expose, the events they publish and subscribe to, and the parameters
they need. It resolves parameters, derives typed edges, synthesizes the
ingress for exposed services and emits a validated graph for a renderer.

` + SubtitleStyle.Render("Examples:") + `
  stackgraph compile shop.yaml                   Print the graph as YAML
  stackgraph compile shop.yaml -o table          Print the graph as tables
  stackgraph compile shop.yaml -p api.TOKEN=x    Provide a parameter value
  stackgraph validate shop.yaml payments.yaml    Check specifications
  stackgraph config show                         Show current configuration`,
		SilenceUsage: true,
	}
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	flags.StringVar(&app.flags.configPath, "config", "", "config file (default is $HOME/.config/stackgraph/config.cue)")
	flags.StringVar(&app.flags.colorScheme, "color-scheme", "", "color scheme for help pages (auto, dark, light)")

	rootCmd.AddCommand(newCompileCommand(app))
	rootCmd.AddCommand(newValidateCommand(app))
	rootCmd.AddCommand(newPushCommand(app))
	rootCmd.AddCommand(newPluginCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	if err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(errorHandler),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// errorHandler leaves errors that were already rendered with their issue page alone
// and hands everything else (usage errors, unknown flags) to fang.
func errorHandler(w io.Writer, styles fang.Styles, err error) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}
