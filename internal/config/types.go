// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// GatewayKindNginx synthesizes an nginx ingress.
	GatewayKindNginx GatewayKind = "nginx"
	// GatewayKindGeneric synthesizes a generic ingress the renderer implements.
	GatewayKindGeneric GatewayKind = "gateway"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// DefaultGatewayPort is the port the synthesized ingress is published on.
	DefaultGatewayPort = 80
	// DefaultRegistryTool is the registry client command.
	DefaultRegistryTool = "oras"
	// DefaultWatchDebounce is the quiet period before `compile --watch` recompiles.
	DefaultWatchDebounce = 300 * time.Millisecond
)

var (
	// ErrInvalidGatewayKind is returned when a GatewayKind value is not recognized.
	ErrInvalidGatewayKind = errors.New("invalid gateway kind")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidGatewayPort is returned for ports outside 1-65535.
	ErrInvalidGatewayPort = errors.New("invalid gateway port")
	// ErrInvalidWatchDebounce is returned for a negative debounce.
	ErrInvalidWatchDebounce = errors.New("invalid watch debounce")
	// ErrInvalidCacheDirPath is returned when a CacheDirPath value is whitespace-only.
	ErrInvalidCacheDirPath = errors.New("invalid cache dir path")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// GatewayKind selects the ingress implementation synthesized by the compiler.
	GatewayKind string

	// InvalidGatewayKindError is returned when a GatewayKind value is not recognized.
	InvalidGatewayKindError struct {
		Value GatewayKind
	}

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// CacheDirPath represents a filesystem path to a cache directory.
	// The zero value ("") means "use the default cache directory".
	CacheDirPath string

	// InvalidCacheDirPathError is returned when a CacheDirPath value is
	// non-empty but whitespace-only.
	InvalidCacheDirPathError struct {
		Value CacheDirPath
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It collects field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Gateway configures the synthesized ingress
		Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`
		// Registry configures the external registry client
		Registry RegistryConfig `json:"registry" mapstructure:"registry"`
		// Plugins configures renderer plugin installation
		Plugins PluginsConfig `json:"plugins" mapstructure:"plugins"`
		// Watch configures `compile --watch`
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// UI configures the user interface
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// GatewayConfig configures the ingress synthesized for exposed services.
	GatewayConfig struct {
		// Kind is "nginx" (default) or "gateway"
		Kind GatewayKind `json:"kind" mapstructure:"kind"`
		// Port is the port the ingress is published on (default: 80)
		Port int `json:"port" mapstructure:"port"`
	}

	// RegistryConfig configures the registry client.
	RegistryConfig struct {
		// Tool is a shell-quoted command line, e.g. "oras --plain-http"
		Tool string `json:"tool" mapstructure:"tool"`
	}

	// PluginsConfig configures plugin installation.
	PluginsConfig struct {
		// CacheDir is where plugins are installed (default: user cache dir)
		CacheDir CacheDirPath `json:"cache_dir" mapstructure:"cache_dir"`
	}

	// WatchConfig configures recompilation on file changes.
	WatchConfig struct {
		// Debounce is a Go duration such as "300ms"
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// ColorScheme sets the color scheme
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
		// Verbose enables debug logging
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Kind: GatewayKindNginx,
			Port: DefaultGatewayPort,
		},
		Registry: RegistryConfig{
			Tool: DefaultRegistryTool,
		},
		Watch: WatchConfig{
			Debounce: DefaultWatchDebounce,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// String returns the string representation of the GatewayKind.
func (k GatewayKind) String() string { return string(k) }

// IsValid returns whether the GatewayKind is one of the defined kinds.
func (k GatewayKind) IsValid() (bool, []error) {
	switch k {
	case GatewayKindNginx, GatewayKindGeneric:
		return true, nil
	default:
		return false, []error{&InvalidGatewayKindError{Value: k}}
	}
}

// Error implements the error interface.
func (e *InvalidGatewayKindError) Error() string {
	return fmt.Sprintf("invalid gateway kind %q (valid: nginx, gateway)", e.Value)
}

// Unwrap returns ErrInvalidGatewayKind for errors.Is() compatibility.
func (e *InvalidGatewayKindError) Unwrap() error { return ErrInvalidGatewayKind }

// String returns the string representation of the ColorScheme.
func (c ColorScheme) String() string { return string(c) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (c ColorScheme) IsValid() (bool, []error) {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: c}}
	}
}

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the CacheDirPath.
func (p CacheDirPath) String() string { return string(p) }

// IsValid returns whether the CacheDirPath is valid.
// The zero value is valid; non-zero values must not be whitespace-only.
func (p CacheDirPath) IsValid() (bool, []error) {
	if p != "" && strings.TrimSpace(string(p)) == "" {
		return false, []error{&InvalidCacheDirPathError{Value: p}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidCacheDirPathError) Error() string {
	return fmt.Sprintf("invalid cache dir path %q: must not be whitespace-only", e.Value)
}

// Unwrap returns ErrInvalidCacheDirPath for errors.Is() compatibility.
func (e *InvalidCacheDirPathError) Unwrap() error { return ErrInvalidCacheDirPath }

// IsValid returns whether the Config has valid fields.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Gateway.Kind.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Gateway.Port < 1 || c.Gateway.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidGatewayPort, c.Gateway.Port))
	}
	if valid, fieldErrs := c.Plugins.CacheDir.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidWatchDebounce, c.Watch.Debounce))
	}
	if valid, fieldErrs := c.UI.ColorScheme.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
