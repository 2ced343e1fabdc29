// SPDX-License-Identifier: MPL-2.0

// Package plugin holds the adapters stackgraph uses outside the graph compiler:
// downloading renderer plugins over HTTP, unpacking plugin archives and invoking the
// external registry tool that pushes and pulls artifacts.
package plugin
