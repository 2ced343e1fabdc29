// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stackgraph/stackgraph/pkg/archspec"
)

// newValidateCommand creates the `stackgraph validate` command.
func newValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <spec.yaml>...",
		Short: "Check specifications against the schema",
		Long: `Parse every specification and check it against the specification schema.

All files are checked and every failure is reported. Parameters are not
resolved; use 'stackgraph compile' to check a complete graph.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.loadSettings(cmd.Context()); err != nil {
				return app.fail(err)
			}
			return app.validateSpecs(cmd, args)
		},
	}
}

func (a *App) validateSpecs(cmd *cobra.Command, paths []string) error {
	w := cmd.OutOrStdout()

	var errs []error
	for _, path := range paths {
		spec, err := archspec.ParseFile(a.Fs, a.schema, path)
		if err != nil {
			fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("✗"), path)
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", SuccessStyle.Render("✓"), path,
			SubtitleStyle.Render(fmt.Sprintf("(%s, %d services: %s)", spec.Name, len(spec.Services),
				strings.Join(spec.Services.Names(), ", "))))
	}

	if len(errs) > 0 {
		return a.fail(errors.Join(errs...))
	}
	return nil
}
