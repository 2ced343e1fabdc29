// SPDX-License-Identifier: MPL-2.0

// Package compiler turns parsed specification documents into a dependency graph.
//
// A compilation pass resolves the parameters of every service, builds nodes, registers
// them with an Assembler (later refs win), derives dependency and notification edges,
// fills configuration placeholders and finally synthesizes the ingress node for exposed
// services. The pass either returns a complete *depgraph.Graph or an error; nothing
// partial is produced.
package compiler
