// Package reconcile folds per-source match records into one canonical
// record per fixture.
package reconcile

import (
	"log/slog"

	"github.com/Vodeneev/footytips/internal/pkg/identity"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// All folds the sources in precedence order: the first list is the base and
// each following list only fills what is still missing. Every returned record
// carries its canonical ID.
func All(sources ...[]models.MatchRecord) []models.MatchRecord {
	var acc []models.MatchRecord
	for _, src := range sources {
		acc = Merge(acc, src)
	}
	for i := range acc {
		if acc[i].ID == "" {
			acc[i].ID = models.CanonicalMatchID(acc[i].HomeTeam, acc[i].AwayTeam, acc[i].Kickoff)
		}
	}
	return acc
}

// Merge folds secondary into acc. A secondary record whose home and away
// teams both match an accumulated record fills that record's absent fields;
// otherwise it is appended. Neither input is modified.
func Merge(acc, secondary []models.MatchRecord) []models.MatchRecord {
	out := make([]models.MatchRecord, 0, len(acc)+len(secondary))
	for _, m := range acc {
		out = append(out, cloneRecord(m))
	}

	appended := 0
	for _, m := range secondary {
		if i := find(out, m); i >= 0 {
			fillForward(&out[i], m)
			continue
		}
		out = append(out, cloneRecord(m))
		appended++
	}

	slog.Debug("Merged source records",
		"accumulated", len(acc),
		"secondary", len(secondary),
		"appended", appended,
		"total", len(out))
	return out
}

func find(records []models.MatchRecord, m models.MatchRecord) int {
	for i := range records {
		if identity.NamesMatch(records[i].HomeTeam, m.HomeTeam) &&
			identity.NamesMatch(records[i].AwayTeam, m.AwayTeam) {
			return i
		}
	}
	return -1
}

// fillForward writes only fields that are absent (zero or empty) in dst.
func fillForward(dst *models.MatchRecord, src models.MatchRecord) {
	if dst.Kickoff.IsZero() {
		dst.Kickoff = src.Kickoff
	}
	if dst.League == "" {
		dst.League = src.League
	}
	if dst.Country == "" {
		dst.Country = src.Country
	}
	if len(dst.HomeForm) == 0 {
		dst.HomeForm = append([]string(nil), src.HomeForm...)
	}
	if len(dst.AwayForm) == 0 {
		dst.AwayForm = append([]string(nil), src.AwayForm...)
	}
	if dst.HomeGoalsScored == 0 {
		dst.HomeGoalsScored = src.HomeGoalsScored
	}
	if dst.HomeGoalsConceded == 0 {
		dst.HomeGoalsConceded = src.HomeGoalsConceded
	}
	if dst.AwayGoalsScored == 0 {
		dst.AwayGoalsScored = src.AwayGoalsScored
	}
	if dst.AwayGoalsConceded == 0 {
		dst.AwayGoalsConceded = src.AwayGoalsConceded
	}
	if len(dst.HeadToHead) == 0 {
		dst.HeadToHead = append([]models.HeadToHeadRecord(nil), src.HeadToHead...)
	}
	if len(dst.Injuries) == 0 {
		dst.Injuries = append([]models.Injury(nil), src.Injuries...)
	}
	if dst.HomePosition == 0 {
		dst.HomePosition = src.HomePosition
	}
	if dst.AwayPosition == 0 {
		dst.AwayPosition = src.AwayPosition
	}
	if dst.LeagueSize == 0 {
		dst.LeagueSize = src.LeagueSize
	}
	if dst.TipLabel == "" {
		dst.TipLabel = src.TipLabel
	}
	if dst.TipConfidence == 0 {
		dst.TipConfidence = src.TipConfidence
	}
	dst.Markets = unionMarkets(dst.Markets, src.Markets)
}

// unionMarkets adds bookmakers not yet present; a known bookmaker keeps its
// first-seen prices.
func unionMarkets(dst, src []models.BookmakerQuotes) []models.BookmakerQuotes {
	seen := make(map[string]bool, len(dst))
	for _, q := range dst {
		seen[q.Bookmaker] = true
	}
	for _, q := range src {
		if seen[q.Bookmaker] {
			continue
		}
		seen[q.Bookmaker] = true
		dst = append(dst, q)
	}
	return dst
}

func cloneRecord(m models.MatchRecord) models.MatchRecord {
	c := m
	c.HomeForm = append([]string(nil), m.HomeForm...)
	c.AwayForm = append([]string(nil), m.AwayForm...)
	c.HeadToHead = append([]models.HeadToHeadRecord(nil), m.HeadToHead...)
	c.Markets = append([]models.BookmakerQuotes(nil), m.Markets...)
	c.Injuries = append([]models.Injury(nil), m.Injuries...)
	return c
}
