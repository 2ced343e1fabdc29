// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/stackgraph/stackgraph/internal/config"
	"github.com/stackgraph/stackgraph/pkg/specyaml"
)

type (
	// App wires CLI services and shared dependencies. All Cobra command handlers
	// receive an App reference.
	App struct {
		Config ConfigProvider
		Fs     afero.Fs
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
		// schema decodes specification and values files for every command.
		schema *specyaml.Schema

		flags    rootFlags
		settings *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil fields are
	// replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		Fs     afero.Fs
		Stdout io.Writer
		Stderr io.Writer
		Schema *specyaml.Schema
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlags holds the persistent flags shared by every command.
	rootFlags struct {
		configPath  string
		verbose     bool
		colorScheme string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.Schema == nil {
		deps.Schema = specyaml.NewSchema()
	}

	return &App{
		Config: deps.Config,
		Fs:     deps.Fs,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
		schema: deps.Schema,
		logger: log.NewWithOptions(deps.Stderr, log.Options{
			Prefix: config.AppName,
			Level:  log.WarnLevel,
		}),
	}
}

// loadSettings loads configuration once per invocation and applies it together with
// the persistent flags: --verbose or ui.verbose switch logging to debug level, and
// --color-scheme overrides ui.color_scheme.
func (a *App) loadSettings(ctx context.Context) (*config.Config, error) {
	if a.settings != nil {
		return a.settings, nil
	}

	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.configPath})
	if err != nil {
		return nil, err
	}
	if a.flags.colorScheme != "" {
		cfg.UI.ColorScheme = config.ColorScheme(a.flags.colorScheme)
		if valid, errs := cfg.UI.ColorScheme.IsValid(); !valid {
			return nil, errs[0]
		}
	}
	if a.flags.verbose {
		cfg.UI.Verbose = true
	}
	if cfg.UI.Verbose {
		a.logger.SetLevel(log.DebugLevel)
	}

	a.settings = cfg
	return cfg, nil
}

// issueStyle returns the glamour style issue pages are rendered with.
func (a *App) issueStyle() string {
	if a.settings == nil {
		return string(config.ColorSchemeAuto)
	}
	return a.settings.UI.ColorScheme.String()
}

func (a *App) verbose() bool {
	return a.flags.verbose || (a.settings != nil && a.settings.UI.Verbose)
}
