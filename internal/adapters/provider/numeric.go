package provider

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePrice turns a localized price string ("€1.234,56", "$1,234.56",
// "1.250 TL") into a float. The '.'/',' ambiguity is resolved with
// digit-grouping heuristics:
//   - both separators present: the one further right is the decimal mark;
//   - a single separator followed by exactly three digits, with more digits
//     in front, is grouping ("1.234" -> 1234);
//   - otherwise a single separator is the decimal mark ("12,5" -> 12.5).
func ParsePrice(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			return r
		default:
			return -1
		}
	}, s)
	if cleaned == "" || cleaned == "-" {
		return 0, fmt.Errorf("no numeric content in %q", s)
	}

	lastDot := strings.LastIndexByte(cleaned, '.')
	lastComma := strings.LastIndexByte(cleaned, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			// 1.234,56 -> dot groups, comma decimal
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			// 1,234.56 -> comma groups, dot decimal
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		cleaned = resolveSingleSep(cleaned, ',')
	case lastDot >= 0:
		cleaned = resolveSingleSep(cleaned, '.')
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", s, err)
	}
	return v, nil
}

func resolveSingleSep(s string, sep byte) string {
	if strings.Count(s, string(sep)) > 1 {
		// multiple occurrences can only be grouping: 1.234.567
		return strings.ReplaceAll(s, string(sep), "")
	}
	i := strings.IndexByte(s, sep)
	tail := len(s) - i - 1
	if tail == 3 && i > 0 {
		// exactly three trailing digits reads as a thousands group
		return strings.ReplaceAll(s, string(sep), "")
	}
	if sep == ',' {
		return strings.Replace(s, ",", ".", 1)
	}
	return s
}
