// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/stackgraph/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/stackgraph/config.cue on macOS, %APPDATA%\stackgraph\config.cue
// on Windows), falling back to ./config.cue. Every key can be overridden with a STACKGRAPH_
// environment variable, e.g. STACKGRAPH_GATEWAY_PORT=8080.
//
// Configuration files are validated against the embedded #Config schema (config_schema.cue).
package config
