// SPDX-License-Identifier: MPL-2.0

// Package archspec defines the specification document that describes an application:
// its services, their ports, dependencies, published events, subscriptions and declared
// configuration parameters, plus an optional ingress declaration.
//
// Documents are YAML. They are parsed with a specyaml.Schema, validated against the
// embedded CUE schema (#Spec) and decoded into Spec. Services keep their document order.
package archspec
