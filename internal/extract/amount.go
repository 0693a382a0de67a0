// Package extract turns free receipt text into candidate record fields.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches a currency-marked number or a bare decimal. Bare
// integers are ignored so years, phone numbers and invoice ids are not taken
// for totals. A decimal part longer than two digits is not an amount.
var amountPattern = regexp.MustCompile(`(?i)(?:₹|\$|€|£|\b(?:rs\.?|inr))\s*(\d[\d,]*(?:\.\d{1,2}\b)?)|(\d[\d,]*\.\d{1,2}\b)`)

// ExtractAmount returns the largest amount found in text.
func ExtractAmount(text string) (float64, bool) {
	best, found := 0.0, false
	for _, m := range amountPattern.FindAllStringSubmatchIndex(text, -1) {
		if truncated(text, m[1]) {
			continue
		}
		raw := submatch(text, m, 1)
		if raw == "" {
			raw = submatch(text, m, 2)
		}
		v, ok := normalizeAmount(raw)
		if !ok {
			continue
		}
		if !found || v > best {
			best, found = v, true
		}
	}
	return best, found
}

// truncated reports whether a match stopped short of the number it was taken
// from, as in "1234.567".
func truncated(text string, end int) bool {
	rest := text[end:]
	if rest == "" {
		return false
	}
	if rest[0] >= '0' && rest[0] <= '9' {
		return true
	}
	return rest[0] == '.' && len(rest) > 1 && rest[1] >= '0' && rest[1] <= '9'
}

func submatch(text string, loc []int, n int) string {
	if loc[2*n] < 0 {
		return ""
	}
	return text[loc[2*n]:loc[2*n+1]]
}

func normalizeAmount(raw string) (float64, bool) {
	s := strings.ReplaceAll(raw, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
