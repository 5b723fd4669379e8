package predictor

import (
	"fmt"
	"strings"

	"github.com/Vodeneev/footytips/internal/pkg/features"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// Key factor tags.
const (
	TagExcellentForm   = "Excellent Form"
	TagHomeAdvantage   = "Home Advantage"
	TagH2HDominance    = "H2H Dominance"
	TagInjuryAdvantage = "Injury Advantage"
	TagMotivation      = "Motivation Edge"
	TagFormEdge        = "Form Edge"
	TagHighScoring     = "High Scoring"
	TagMarketValue     = "Market Value"
	TagBalanced        = "Balanced Matchup"
)

const genericReasoning = "No single factor stands out; the pick rests on the combined weighting of form, venue, history and squad news."

// weightedReasoning cites every sub-score that crossed its highlight level.
func weightedReasoning(m models.MatchRecord, s models.FactorScores) (string, []string) {
	var parts, tags []string

	if s.Form >= 70 {
		parts = append(parts, fmt.Sprintf("%s arrive in excellent form (form score %.0f).", m.HomeTeam, s.Form))
		tags = append(tags, TagExcellentForm)
	} else if s.Form <= 30 {
		parts = append(parts, fmt.Sprintf("%s hold the clear form advantage (form score %.0f).", m.AwayTeam, s.Form))
	}
	if s.HomeAway >= 65 {
		parts = append(parts, fmt.Sprintf("%s are strong at home while %s struggle on the road (%.0f).", m.HomeTeam, m.AwayTeam, s.HomeAway))
		tags = append(tags, TagHomeAdvantage)
	}
	if s.HeadToHead >= 65 {
		parts = append(parts, fmt.Sprintf("%s dominate recent meetings (%.0f%% wins).", m.HomeTeam, s.HeadToHead))
		tags = append(tags, TagH2HDominance)
	}
	if s.Injury >= 60 {
		parts = append(parts, fmt.Sprintf("%s are weakened by injuries (injury score %.0f).", m.AwayTeam, s.Injury))
		tags = append(tags, TagInjuryAdvantage)
	}
	if s.League >= 55 {
		parts = append(parts, fmt.Sprintf("%s have more to play for in the table.", m.HomeTeam))
		tags = append(tags, TagMotivation)
	}

	if len(parts) == 0 {
		return genericReasoning, []string{TagBalanced}
	}
	return strings.Join(parts, " "), tags
}

// valueReasoning explains a value-mode prediction.
func valueReasoning(m models.MatchRecord, v features.Vector, bet *models.ValueBet) (string, []string) {
	var parts, tags []string

	if diff := v.HomeFormPoints - v.AwayFormPoints; diff >= 4 || diff <= -4 {
		leader, lp, tp := m.HomeTeam, v.HomeFormPoints, v.AwayFormPoints
		if diff < 0 {
			leader, lp, tp = m.AwayTeam, v.AwayFormPoints, v.HomeFormPoints
		}
		parts = append(parts, fmt.Sprintf("%s have the better recent form (%d pts vs %d).", leader, lp, tp))
		tags = append(tags, TagFormEdge)
	}
	if v.H2HMeetings >= 3 && v.H2HHomeWins != v.H2HAwayWins {
		leader, wins := m.HomeTeam, v.H2HHomeWins
		if v.H2HAwayWins > v.H2HHomeWins {
			leader, wins = m.AwayTeam, v.H2HAwayWins
		}
		parts = append(parts, fmt.Sprintf("%s won %d of the last %d meetings.", leader, wins, v.H2HMeetings))
		tags = append(tags, TagH2HDominance)
	}
	if goals := v.HomeGoalsScoredAvg + v.AwayGoalsScoredAvg; goals >= 3 {
		parts = append(parts, fmt.Sprintf("Both attacks are productive (%.1f goals per game combined).", goals))
		tags = append(tags, TagHighScoring)
	}
	if bet != nil {
		parts = append(parts, fmt.Sprintf("Model rates %s at %.1f%% against a market %.1f%% (edge %.1f%%, EV %+.2f at %.2f with %s).",
			bet.BetLabel, bet.Confidence*100, (bet.Confidence-bet.Edge)*100, bet.Edge*100, bet.ExpectedValue, bet.Price, bet.Bookmaker))
		tags = append(tags, TagMarketValue)
	}

	if len(parts) == 0 {
		return genericReasoning, []string{TagBalanced}
	}
	return strings.Join(parts, " "), tags
}
