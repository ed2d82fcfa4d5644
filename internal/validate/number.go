package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// decimalLiteral is the decimal grammar of a numeric string: optional sign,
// digits with an optional fraction (or a bare fraction), optional exponent.
var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// toNumber coerces v the way a JavaScript Number() call would, restricted to
// values that decode from JSON. ok is false when the result would be NaN or
// not finite.
func toNumber(v any) (n float64, ok bool) {
	switch t := v.(type) {
	case float64:
		return t, finite(t)
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumeric(t)
	case []any:
		return arrayNumber(t)
	}
	return 0, false
}

// arrayNumber converts an array through its string form: [] and [null] are
// "" and so 0, [x] is x, and anything longer holds a comma and is NaN.
// A lone boolean reads as "true" or "false", which is not numeric.
func arrayNumber(a []any) (float64, bool) {
	switch len(a) {
	case 0:
		return 0, true
	case 1:
		switch e := a[0].(type) {
		case nil:
			return 0, true
		case string:
			return parseNumeric(e)
		case float64:
			return e, finite(e)
		case []any:
			return arrayNumber(e)
		}
	}
	return 0, false
}

// isNumericSpace reports whether r is trimmed from a numeric string. Unlike
// unicode.IsSpace it includes U+FEFF and excludes U+0085.
func isNumericSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', '\u2028', '\u2029', '\uFEFF':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func parseNumeric(s string) (float64, bool) {
	s = strings.TrimFunc(s, isNumericSpace)
	if s == "" {
		return 0, true
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			digits := s[2:]
			if strings.ContainsRune(digits, '_') {
				return 0, false
			}
			u, err := strconv.ParseUint(digits, base, 64)
			if err != nil {
				return 0, false
			}
			return float64(u), true
		}
	}
	if !decimalLiteral.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out of range parses to ±Inf, which JSON cannot carry.
		return 0, false
	}
	return f, finite(f)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
