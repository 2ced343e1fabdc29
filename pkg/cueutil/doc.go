// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates input against embedded CUE schemas.
//
// Two entry points share one unify-and-validate step:
//
//   - ParseAndDecode compiles CUE source (the config file) and decodes it into a Go type.
//   - ValidateValue encodes an already decoded Go value (a YAML specification document) and
//     checks it against a schema definition.
//
// Failures are returned as *SchemaError, whose problems carry JSON-style field paths such as
// "services.api.ports.target".
package cueutil
