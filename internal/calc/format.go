package calc

import (
	"math"
	"strconv"
	"strings"
)

// ShortestPrecision selects the shortest decimal that round-trips.
const ShortestPrecision = -1

// FormatResult renders a result for display and for chaining into the next
// expression.
//
// With ShortestPrecision the output follows the usual number-to-string
// rules of calculators built on IEEE doubles: plain decimal notation for
// 1e-6 <= |v| < 1e21, exponent notation ("1e+21", "1.5e-7") otherwise. A
// non-negative precision fixes the number of fractional digits.
func FormatResult(v float64, precision int) string {
	if v == 0 {
		// covers -0
		return "0"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	if precision >= 0 {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}

	abs := math.Abs(v)
	if abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}

	s := strconv.FormatFloat(v, 'e', -1, 64)
	mantissa, exp, _ := strings.Cut(s, "e")
	sign := exp[:1]
	digits := strings.TrimLeft(exp[1:], "0")
	if digits == "" {
		digits = "0"
	}
	return mantissa + "e" + sign + digits
}
