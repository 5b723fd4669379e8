package odds

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePrice reads a price written as decimal ("2.25"), fractional ("5/4",
// "evs") or American ("+125", "-200") and returns it as a decimal price.
func ParsePrice(s string) (float64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "":
		return 0, fmt.Errorf("empty price")
	case s == "evs" || s == "evens":
		return 2, nil
	case strings.Contains(s, "/"):
		return parseFractional(s)
	case strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-"):
		return parseAmerican(s)
	}

	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", s, err)
	}
	if !ValidPrice(d) {
		return 0, fmt.Errorf("price %q out of range", s)
	}
	return d, nil
}

func parseFractional(s string) (float64, error) {
	numStr, denStr, _ := strings.Cut(s, "/")
	num, err := strconv.ParseFloat(strings.TrimSpace(numStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fractional price %q: %w", s, err)
	}
	den, err := strconv.ParseFloat(strings.TrimSpace(denStr), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fractional price %q: %w", s, err)
	}
	if num <= 0 || den <= 0 {
		return 0, fmt.Errorf("invalid fractional price %q", s)
	}
	return 1 + num/den, nil
}

func parseAmerican(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid american price %q: %w", s, err)
	}
	switch {
	case v >= 100:
		return 1 + v/100, nil
	case v <= -100:
		return 1 + 100/-v, nil
	}
	return 0, fmt.Errorf("american price %q must be at least 100 in magnitude", s)
}
