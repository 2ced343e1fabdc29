// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/stackgraph/stackgraph/internal/config"
	"github.com/stackgraph/stackgraph/internal/watch"
)

// newCompileCommand creates the `stackgraph compile` command.
func newCompileCommand(app *App) *cobra.Command {
	var (
		flags   graphFlags
		format  string
		watchOn bool
	)

	compileCmd := &cobra.Command{
		Use:     "compile <spec.yaml>...",
		Aliases: []string{"graph"},
		Short:   "Compile specifications into a dependency graph",
		Long: `Compile one or more specifications into a dependency graph and print it.

Specifications are merged in order; when two define a service with the same
name and tag, the later definition wins. Parameter values are taken from
--param, then --env-file, then --values, and finally from parameter defaults.

With --watch the graph is printed again whenever a specification, values file
or env file changes, until the command is interrupted.`,
		Example: `  stackgraph compile shop.yaml
  stackgraph compile shop.yaml payments.yaml --values prod.yaml -o json
  stackgraph compile shop.yaml -p api.DB_PASSWORD=file:~/.secrets/db
  stackgraph compile shop.yaml --values dev.yaml --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat := OutputFormat(format)
			if valid, errs := outputFormat.IsValid(); !valid {
				return errs[0]
			}

			cfg, err := app.loadSettings(cmd.Context())
			if err != nil {
				return app.fail(err)
			}

			compileOnce := func(ctx context.Context, w io.Writer) error {
				out, err := app.buildGraph(ctx, cfg, args, &flags)
				if err != nil {
					return app.fail(err)
				}
				return writeGraph(w, out, outputFormat)
			}

			if !watchOn {
				return compileOnce(cmd.Context(), cmd.OutOrStdout())
			}
			return app.watchGraph(cmd.Context(), cmd.OutOrStdout(), cfg, watchedFiles(args, &flags), compileOnce)
		},
	}

	flags.register(compileCmd.Flags())
	compileCmd.Flags().StringVarP(&format, "output", "o", string(FormatYAML), "output format: yaml, json, toml or table")
	compileCmd.Flags().BoolVarP(&watchOn, "watch", "w", false, "recompile when an input file changes")

	return compileCmd
}

// watchedFiles lists every file a compilation reads, in flag order and without duplicates.
func watchedFiles(specs []string, flags *graphFlags) []string {
	var files []string
	for _, group := range [][]string{specs, flags.valuesFiles, flags.envFiles} {
		for _, f := range group {
			if !slices.Contains(files, f) {
				files = append(files, f)
			}
		}
	}
	return files
}

// watchGraph compiles once, then again after every change to files, until ctx is done.
// A failed compilation is reported and does not stop the watch.
func (a *App) watchGraph(ctx context.Context, w io.Writer, cfg *config.Config, files []string, compileOnce func(context.Context, io.Writer) error) error {
	watcher, err := watch.New(watch.Config{
		Files:    files,
		Debounce: cfg.Watch.Debounce,
		Logger:   a.logger.WithPrefix("watch"),
		OnChange: func(ctx context.Context, changed []string) error {
			a.logger.Info("recompiling", "changed", changed)
			fmt.Fprintln(w)
			// Failures were already rendered with their issue page.
			_ = compileOnce(ctx, w)
			return nil
		},
	})
	if err != nil {
		return a.fail(err)
	}

	// The first failure is rendered too; the watch keeps going so it can be fixed.
	_ = compileOnce(ctx, w)
	fmt.Fprintf(a.stderr, "%s %s\n", SubtitleStyle.Render("Watching"), CmdStyle.Render(fmt.Sprint(watcher.Files())))
	if err := watcher.Run(ctx); err != nil {
		return a.fail(err)
	}
	return nil
}
