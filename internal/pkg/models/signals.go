package models

import "time"

// TeamSignals are the persisted per-team inputs of the weighted-factor mode.
type TeamSignals struct {
	Team           string    `json:"team" db:"team"`
	FormPercentage float64   `json:"form_percentage" db:"form_percentage"` // 0..100
	HomeWinRate    float64   `json:"home_win_rate" db:"home_win_rate"`     // 0..1
	AwayLossRate   float64   `json:"away_loss_rate" db:"away_loss_rate"`   // 0..1
	GoalsScoredAvg float64   `json:"goals_scored_avg" db:"goals_scored_avg"`
	LeaguePosition int       `json:"league_position" db:"league_position"`
	LeagueSize     int       `json:"league_size" db:"league_size"`
	UpdatedAt      time.Time `json:"updated_at" db:"-"`
}
