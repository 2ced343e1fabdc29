// SPDX-License-Identifier: MPL-2.0

// Package depgraph defines the compiled dependency graph handed to renderers.
//
// A Graph holds an ordered set of nodes, unique by Ref, and an ordered list of typed edges
// that name their endpoints by Ref. Nodes are a closed set of kinds (service, gateway, nginx)
// sharing one struct; kind-specific identity rules live in per-kind tables rather than in
// overridden methods. Graphs are built by internal/compiler and are read-only afterwards.
package depgraph
