// SPDX-License-Identifier: MPL-2.0

package specyaml

import (
	"math"
	"strconv"
	"strings"
)

const (
	// exponentUpper is the magnitude from which numbers print in exponent form.
	exponentUpper = 1e21
	// exponentLower is the magnitude below which non-zero numbers print in exponent form.
	exponentLower = 1e-6
)

// formatNumber renders f in its canonical shortest form: integral values have no fraction
// ("1.0" prints as "1"), very large and very small magnitudes use an exponent with an explicit
// sign ("1e+21", "1e-7"), and non-finite values print as "NaN", "Infinity" and "-Infinity".
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		// Covers negative zero as well.
		return "0"
	}

	abs := math.Abs(f)
	if abs >= exponentUpper || abs < exponentLower {
		return trimExponent(strconv.FormatFloat(f, 'e', -1, 64))
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// trimExponent drops the zero padding Go adds to exponents ("1e-07" -> "1e-7").
func trimExponent(s string) string {
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}
	sign := "+"
	if exp != "" && (exp[0] == '+' || exp[0] == '-') {
		sign = exp[:1]
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		exp = "0"
	}
	return mantissa + "e" + sign + exp
}

// roundTrips reports whether text parses as a float64 that prints back as exactly text.
func roundTrips(text string) (float64, bool) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return f, formatNumber(f) == text
}
