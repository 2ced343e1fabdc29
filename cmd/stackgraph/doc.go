// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for stackgraph.
//
// The App type is the composition root: command handlers receive it and reach
// configuration, the filesystem and output streams through it.
package cmd
