// SPDX-License-Identifier: MPL-2.0

// Package params resolves the declared configuration parameters of services.
//
// A parameter takes its provided value (after file reference resolution), else its
// default, else it is reported missing when required and omitted otherwise. Provided
// values come from values files, dotenv files and command-line assignments.
package params
