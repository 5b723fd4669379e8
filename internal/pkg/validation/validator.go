package validation

import (
	"fmt"
	"strings"

	"github.com/Vodeneev/footytips/internal/pkg/models"
)

const maxNameLength = 100

var knownSeverities = map[string]bool{
	"critical": true,
	"major":    true,
	"moderate": true,
	"minor":    true,
}

// clubForms are club-type affixes that never tell two sides apart.
var clubForms = map[string]bool{"fc": true, "afc": true, "cf": true}

// clubKey lowercases a team name and drops club-type affixes. Unlike
// identity.Normalize it keeps "united" and "city", so derbies such as
// Manchester United vs Manchester City stay two teams.
func clubKey(name string) string {
	var parts []string
	for _, w := range strings.Fields(strings.ToLower(name)) {
		w = strings.Trim(w, ".")
		if w != "" && !clubForms[w] {
			parts = append(parts, w)
		}
	}
	return strings.Join(parts, " ")
}

// Validator rejects source records that cannot be reconciled or scored.
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRecord validates a sanitized match record
func (v *Validator) ValidateRecord(rec *models.MatchRecord) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}

	if rec.HomeTeam == "" {
		return fmt.Errorf("home team cannot be empty")
	}
	if rec.AwayTeam == "" {
		return fmt.Errorf("away team cannot be empty")
	}
	if len(rec.HomeTeam) > maxNameLength || len(rec.AwayTeam) > maxNameLength {
		return fmt.Errorf("team name too long: %q vs %q", rec.HomeTeam, rec.AwayTeam)
	}
	if clubKey(rec.HomeTeam) == clubKey(rec.AwayTeam) {
		return fmt.Errorf("home and away are the same team: %s", rec.HomeTeam)
	}

	for _, f := range [][]string{rec.HomeForm, rec.AwayForm} {
		for _, r := range f {
			if r != "W" && r != "D" && r != "L" {
				return fmt.Errorf("invalid form result %q", r)
			}
		}
	}

	for _, g := range []int{rec.HomeGoalsScored, rec.HomeGoalsConceded, rec.AwayGoalsScored, rec.AwayGoalsConceded} {
		if g < 0 {
			return fmt.Errorf("goal tally cannot be negative: %d", g)
		}
	}

	if rec.LeagueSize < 0 || rec.HomePosition < 0 || rec.AwayPosition < 0 {
		return fmt.Errorf("league table values cannot be negative")
	}
	if rec.LeagueSize > 0 && (rec.HomePosition > rec.LeagueSize || rec.AwayPosition > rec.LeagueSize) {
		return fmt.Errorf("league position beyond league size %d", rec.LeagueSize)
	}

	if rec.TipConfidence < 0 || rec.TipConfidence > 100 {
		return fmt.Errorf("tip confidence out of range: %f", rec.TipConfidence)
	}

	for i, inj := range rec.Injuries {
		if err := v.ValidateInjury(inj); err != nil {
			return fmt.Errorf("injury %d validation failed: %w", i, err)
		}
	}

	for i, q := range rec.Markets {
		if strings.TrimSpace(q.Bookmaker) == "" {
			return fmt.Errorf("market %d: bookmaker cannot be empty", i)
		}
	}

	return nil
}

// ValidateInjury validates injury data
func (v *Validator) ValidateInjury(inj models.Injury) error {
	if inj.Player == "" {
		return fmt.Errorf("player cannot be empty")
	}
	if inj.Severity != "" && !knownSeverities[inj.Severity] {
		return fmt.Errorf("invalid severity: %s", inj.Severity)
	}
	return nil
}
