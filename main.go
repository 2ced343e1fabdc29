// SPDX-License-Identifier: MPL-2.0

// Command stackgraph compiles architecture specifications into dependency graphs.
package main

import cmd "github.com/stackgraph/stackgraph/cmd/stackgraph"

func main() {
	cmd.Execute()
}
