package models

import "time"

// MatchRecord is the superset schema shared by every source and by the
// reconciled canonical record. A zero or empty field means "absent".
type MatchRecord struct {
	ID       string    `json:"id,omitempty"`
	Source   string    `json:"source"`
	Kickoff  time.Time `json:"kickoff"`
	League   string    `json:"league,omitempty"`
	Country  string    `json:"country,omitempty"`
	HomeTeam string    `json:"home_team"`
	AwayTeam string    `json:"away_team"`

	// Recent form, most recent first: "W", "D", "L".
	HomeForm []string `json:"home_form,omitempty"`
	AwayForm []string `json:"away_form,omitempty"`

	// Goal tallies over the last five matches.
	HomeGoalsScored   int `json:"home_goals_scored,omitempty"`
	HomeGoalsConceded int `json:"home_goals_conceded,omitempty"`
	AwayGoalsScored   int `json:"away_goals_scored,omitempty"`
	AwayGoalsConceded int `json:"away_goals_conceded,omitempty"`

	HeadToHead []HeadToHeadRecord `json:"head_to_head,omitempty"`
	Markets    []BookmakerQuotes  `json:"markets,omitempty"`
	Injuries   []Injury           `json:"injuries,omitempty"`

	// League table context, used to derive persisted team signals.
	HomePosition int `json:"home_position,omitempty"`
	AwayPosition int `json:"away_position,omitempty"`
	LeagueSize   int `json:"league_size,omitempty"`

	// Editorial tip scraped from a tips page.
	TipLabel      string  `json:"tip_label,omitempty"`
	TipConfidence float64 `json:"tip_confidence,omitempty"`
}

// Key returns the canonical identifier of the record.
func (m MatchRecord) Key() string {
	if m.ID != "" {
		return m.ID
	}
	return CanonicalMatchID(m.HomeTeam, m.AwayTeam, m.Kickoff)
}

// Name returns "Home vs Away".
func (m MatchRecord) Name() string {
	return m.HomeTeam + " vs " + m.AwayTeam
}

// HeadToHeadRecord is one prior meeting between two teams.
type HeadToHeadRecord struct {
	Date      time.Time `json:"date"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	HomeGoals int       `json:"home_goals"`
	AwayGoals int       `json:"away_goals"`
}

// BookmakerQuotes is one bookmaker's raw decimal prices for a match.
// Home/Draw/Away are mandatory, the rest are zero when not offered.
type BookmakerQuotes struct {
	Bookmaker string  `json:"bookmaker"`
	Home      float64 `json:"home"`
	Draw      float64 `json:"draw"`
	Away      float64 `json:"away"`
	BTTSYes   float64 `json:"btts_yes,omitempty"`
	BTTSNo    float64 `json:"btts_no,omitempty"`
	Over25    float64 `json:"over_2_5,omitempty"`
	Under25   float64 `json:"under_2_5,omitempty"`
}

// Injury is an unavailable player and how much the absence hurts the team.
type Injury struct {
	Team     string `json:"team" db:"team"`
	Player   string `json:"player" db:"player"`
	Severity string `json:"severity" db:"severity"` // critical, major, moderate, minor
}
