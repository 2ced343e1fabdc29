// SPDX-License-Identifier: MPL-2.0

// Package platform holds portability checks for names that become files.
package platform

import "strings"

// windowsReservedNames are device names Windows refuses as file names, with or
// without an extension.
var windowsReservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// IsWindowsReservedName reports whether name, ignoring case and everything from
// its first dot, is a reserved Windows device name.
func IsWindowsReservedName(name string) bool {
	base, _, _ := strings.Cut(strings.ToUpper(name), ".")
	_, reserved := windowsReservedNames[base]
	return reserved
}
