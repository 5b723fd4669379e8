package models

import (
	"strings"
	"time"
)

// CanonicalMatchID builds a stable identifier for a reconciled match.
//
// Team names are expected to be the reconciled (first-seen) spellings, so the
// same fixture keeps its ID across runs as long as the primary source is stable.
// Format: home|away|time
func CanonicalMatchID(homeTeam, awayTeam string, kickoff time.Time) string {
	home := normalizeKeyPart(homeTeam)
	away := normalizeKeyPart(awayTeam)

	ts := "unknown-time"
	if !kickoff.IsZero() {
		ts = kickoff.UTC().Format(time.RFC3339)
	}

	return home + "|" + away + "|" + ts
}

func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	// Keep it URL-friendly-ish: the ID is used as a path parameter.
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "|", " ")
	s = strings.Join(strings.Fields(s), " ")
	return s
}
