package models

import "time"

// Category buckets a recommendation by risk profile.
type Category string

const (
	CategorySafe  Category = "SAFE_BET"
	CategoryValue Category = "VALUE_BET"
	CategoryRisky Category = "RISKY_BET"
)

// BetType is the side picked by the weighted-factor decision tree.
type BetType string

const (
	BetHomeWin BetType = "HOME_WIN"
	BetAwayWin BetType = "AWAY_WIN"
	BetBTTS    BetType = "BTTS"
)

// Outcome maps the bet type onto the market outcome it is priced on.
func (b BetType) Outcome() Outcome {
	switch b {
	case BetHomeWin:
		return OutcomeHomeWin
	case BetAwayWin:
		return OutcomeAwayWin
	case BetBTTS:
		return OutcomeBTTSYes
	}
	return ""
}

// FactorScores are the weighted-factor sub-scores, each in [0, 100].
type FactorScores struct {
	Form       float64 `json:"form" db:"form_score"`
	HomeAway   float64 `json:"home_away" db:"home_away_score"`
	HeadToHead float64 `json:"head_to_head" db:"h2h_score"`
	Injury     float64 `json:"injury" db:"injury_score"`
	League     float64 `json:"league" db:"league_score"`
}

// Recommendation is the output of the weighted-factor mode.
// One recommendation per match; a later run replaces it.
type Recommendation struct {
	ID              string       `json:"id"`
	MatchID         string       `json:"match_id"`
	Kickoff         time.Time    `json:"kickoff"`
	HomeTeam        string       `json:"home_team"`
	AwayTeam        string       `json:"away_team"`
	League          string       `json:"league,omitempty"`
	RecommendedSide string       `json:"recommended_side"`
	BetType         BetType      `json:"bet_type"`
	Confidence      int          `json:"confidence"`
	Category        Category     `json:"category"`
	Scores          FactorScores `json:"scores"`
	Odds            float64      `json:"odds,omitempty"`
	Bookmaker       string       `json:"bookmaker,omitempty"`
	Reasoning       string       `json:"reasoning"`
	KeyFactors      []string     `json:"key_factors"`
	CreatedAt       time.Time    `json:"created_at"`
}

// ValueBet is the single qualifying bet of a value-mode prediction.
type ValueBet struct {
	Outcome       Outcome `json:"outcome"`
	BetLabel      string  `json:"bet_label"`
	Bookmaker     string  `json:"bookmaker"`
	Price         float64 `json:"price"`
	Confidence    float64 `json:"confidence"` // model probability, 0..1
	Edge          float64 `json:"edge"`
	ExpectedValue float64 `json:"expected_value"`
}

// PredictionResult is the output of the value mode. ValueBet is nil when
// no outcome clears both thresholds.
type PredictionResult struct {
	MatchID    string              `json:"match_id"`
	Kickoff    time.Time           `json:"kickoff"`
	HomeTeam   string              `json:"home_team"`
	AwayTeam   string              `json:"away_team"`
	League     string              `json:"league,omitempty"`
	Model      MarketProbabilities `json:"model"`
	Market     MarketProbabilities `json:"market"`
	BestOdds   BestOdds            `json:"best_odds"`
	ValueBet   *ValueBet           `json:"value_bet,omitempty"`
	Reasoning  string              `json:"reasoning"`
	KeyFactors []string            `json:"key_factors"`
	CreatedAt  time.Time           `json:"created_at"`
}

// RecommendationFilter narrows recommendation listings.
type RecommendationFilter struct {
	Date          time.Time
	Category      Category
	MinConfidence int
	Limit         int
}
