package table

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses instrument and hand-typed numbers. The decimal
// separator is auto-detected from the last ',' or '.'; the other separator
// and spaces are treated as thousands separators. Percent signs are
// dropped.
func ParseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.Contains(raw, "%") {
		raw = strings.ReplaceAll(raw, "%", "")
	}
	raw = strings.ReplaceAll(raw, "\u00a0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	dec := '.'
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0 && cpos > dpos:
		dec = ','
	case cpos >= 0 && dpos < 0 && !looksLikeThousands(raw, cpos):
		dec = ','
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// looksLikeThousands reports "1,234" style grouping: exactly three digits
// after a lone comma.
func looksLikeThousands(raw string, cpos int) bool {
	if strings.Count(raw, ",") > 1 {
		return true
	}
	tail := raw[cpos+1:]
	if len(tail) != 3 {
		return false
	}
	for _, r := range tail {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
