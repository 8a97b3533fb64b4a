package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	priceRegexp = regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*([\d,]+)`)
	freeRegexp  = regexp.MustCompile(`(?i)^\s*free\b`)
)

// ParsePrice extracts the currency-prefixed minimum price from a price
// label. It reports false when the label has no recognizable amount.
func ParsePrice(text string) (raw string, min int, ok bool) {
	lines := Lines(text)
	if len(lines) == 0 {
		return "", 0, false
	}
	raw = lines[0]

	if freeRegexp.MatchString(raw) {
		return raw, 0, true
	}

	for _, line := range lines {
		m := priceRegexp.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			return "", 0, false
		}
		return line, n, true
	}
	return "", 0, false
}
