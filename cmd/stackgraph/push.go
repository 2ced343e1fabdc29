// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackgraph/stackgraph/internal/issue"
	"github.com/stackgraph/stackgraph/internal/plugin"
)

// graphArtifactName is the file name a pushed graph is stored under.
const graphArtifactName = "graph.yaml"

// newPushCommand creates the `stackgraph push` command.
func newPushCommand(app *App) *cobra.Command {
	var flags graphFlags

	pushCmd := &cobra.Command{
		Use:   "push <reference> <spec.yaml>...",
		Short: "Compile a graph and push it to an OCI registry",
		Long: `Compile the specifications and push the resulting graph as a YAML artifact
with the registry tool from the configuration (registry.tool, default "oras").`,
		Example: `  stackgraph push registry.example.com/shop/graph:1.0 shop.yaml --values prod.yaml`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadSettings(cmd.Context())
			if err != nil {
				return app.fail(err)
			}
			ref, specPaths := args[0], args[1:]

			tool, err := plugin.NewRegistryTool(cfg.Registry.Tool)
			if err != nil {
				return app.fail(err)
			}
			out, err := app.buildGraph(cmd.Context(), cfg, specPaths, &flags)
			if err != nil {
				return app.fail(err)
			}

			stageDir, err := os.MkdirTemp("", "stackgraph-push-*")
			if err != nil {
				return app.fail(err)
			}
			defer os.RemoveAll(stageDir)

			artifact := filepath.Join(stageDir, graphArtifactName)
			f, err := os.Create(artifact)
			if err != nil {
				return app.fail(err)
			}
			if err := writeGraph(f, out, FormatYAML); err != nil {
				f.Close()
				return app.fail(err)
			}
			if err := f.Close(); err != nil {
				return app.fail(err)
			}

			app.logger.Debug("pushing graph", "ref", ref, "tool", strings.Join(tool.Command(), " "))
			if _, err := tool.InDir(stageDir).Push(cmd.Context(), ref, graphArtifactName); err != nil {
				return app.fail(issue.NewErrorContext().
					WithOperation("push graph").
					WithResource(ref).
					WithSuggestion("Check that you are logged in to the registry").
					Wrap(err).
					BuildError())
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Pushed %d nodes to %s\n",
				SuccessStyle.Render("✓"), len(out.Nodes), CmdStyle.Render(ref))
			return nil
		},
	}

	flags.register(pushCmd.Flags())
	return pushCmd
}
