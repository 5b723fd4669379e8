// Package identity decides whether two team names from different sources
// refer to the same club.
package identity

import (
	"regexp"
	"strings"
	"unicode"
)

// noiseWords are dropped as whole words so "Liverpool FC" and "Liverpool" compare equal.
var noiseWords = regexp.MustCompile(`\b(fc|united|utd|city)\b`)

// Normalize lowercases a team name, drops noise words and every
// non-alphanumeric rune.
func Normalize(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return ""
	}
	s = noiseWords.ReplaceAllString(s, " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NamesMatch reports whether a and b name the same team: equal after
// normalization, one contained in the other, or within a length-scaled
// edit distance.
func NamesMatch(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return Levenshtein(na, nb) <= threshold(na, nb)
}

// threshold grows with the longer name: 3 above 10 runes, 2 above 5, else 1.
func threshold(a, b string) int {
	n := len([]rune(a))
	if m := len([]rune(b)); m > n {
		n = m
	}
	switch {
	case n > 10:
		return 3
	case n > 5:
		return 2
	default:
		return 1
	}
}

// Levenshtein returns the edit distance between a and b counted in runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// SplitTeams extracts team names from a fixture string.
// Supports separators: " vs ", " v ", " - ", " — ", " – "
func SplitTeams(name string) (string, string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}
	separators := []string{" vs ", " v ", " - ", " — ", " – "}
	for _, sep := range separators {
		parts := strings.Split(name, sep)
		if len(parts) != 2 {
			continue
		}
		home := strings.TrimSpace(parts[0])
		away := strings.TrimSpace(parts[1])
		if home == "" || away == "" {
			return "", "", false
		}
		return home, away, true
	}
	return "", "", false
}
