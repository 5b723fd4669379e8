package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/Vodeneev/footytips/internal/pkg/features"
	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
)

// injurySeverity weighs one absent player by how badly it hurts the team.
var injurySeverity = map[string]float64{
	"critical": 3,
	"major":    2,
	"moderate": 1,
	"minor":    0.5,
}

const (
	neutralScore  = 50.0
	injuryScale   = 5.0
	bttsGoalsLine = 1.5
)

// Recommend runs the weighted-factor mode. It returns (nil, nil) when the
// decision tree picks no side or the confidence is below MinConfidence.
func (e *Engine) Recommend(ctx context.Context, m models.MatchRecord, v features.Vector) (*models.Recommendation, error) {
	home, away, err := e.teamSignals(ctx, m)
	if err != nil {
		return nil, err
	}
	meetings, err := e.headToHead(ctx, m)
	if err != nil {
		return nil, err
	}
	homeInjuries, awayInjuries, err := e.injuries(ctx, m)
	if err != nil {
		return nil, err
	}

	scores := models.FactorScores{
		Form:       formScore(home.FormPercentage, away.FormPercentage),
		HomeAway:   homeAwayScore(home.HomeWinRate, away.AwayLossRate),
		HeadToHead: headToHeadScore(features.HeadToHead(m.HomeTeam, meetings)),
		Injury:     injuryScore(homeInjuries, awayInjuries),
		League:     leagueScore(home.LeaguePosition, away.LeaguePosition, leagueSize(home, away)),
	}
	confidence := int(math.Round(weightedConfidence(scores, e.cfg.Weights)))

	bet, ok := decide(scores, home.GoalsScoredAvg, away.GoalsScoredAvg)
	if !ok || confidence < e.cfg.MinConfidence {
		return nil, nil
	}

	price := v.BestOdds.Get(bet.Outcome())
	rec := &models.Recommendation{
		ID:              uuid.NewString(),
		MatchID:         m.Key(),
		Kickoff:         m.Kickoff,
		HomeTeam:        m.HomeTeam,
		AwayTeam:        m.AwayTeam,
		League:          m.League,
		RecommendedSide: side(bet, m),
		BetType:         bet,
		Confidence:      confidence,
		Category:        categorize(confidence, price.Decimal),
		Scores:          scores,
		Odds:            price.Decimal,
		Bookmaker:       price.Bookmaker,
		CreatedAt:       e.now().UTC(),
	}
	rec.Reasoning, rec.KeyFactors = weightedReasoning(m, scores)
	return rec, nil
}

func (e *Engine) teamSignals(ctx context.Context, m models.MatchRecord) (models.TeamSignals, models.TeamSignals, error) {
	home, away := SignalsFromRecord(m)
	if e.signals == nil {
		return home, away, nil
	}
	var err error
	if home, err = e.lookupSignals(ctx, m.HomeTeam, home); err != nil {
		return home, away, err
	}
	if away, err = e.lookupSignals(ctx, m.AwayTeam, away); err != nil {
		return home, away, err
	}
	return home, away, nil
}

func (e *Engine) lookupSignals(ctx context.Context, team string, fallback models.TeamSignals) (models.TeamSignals, error) {
	s, err := e.signals.TeamSignals(ctx, team)
	if errors.Is(err, storage.ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, fmt.Errorf("team signals for %s: %w", team, err)
	}
	return *s, nil
}

func (e *Engine) headToHead(ctx context.Context, m models.MatchRecord) ([]models.HeadToHeadRecord, error) {
	if e.signals == nil {
		return m.HeadToHead, nil
	}
	meetings, err := e.signals.HeadToHead(ctx, m.HomeTeam, m.AwayTeam)
	if err != nil {
		return nil, fmt.Errorf("head to head for %s: %w", m.Name(), err)
	}
	if len(meetings) == 0 {
		return m.HeadToHead, nil
	}
	return meetings, nil
}

func (e *Engine) injuries(ctx context.Context, m models.MatchRecord) (home, away []models.Injury, err error) {
	if e.signals != nil {
		if home, err = e.signals.Injuries(ctx, m.HomeTeam); err != nil {
			return nil, nil, fmt.Errorf("injuries for %s: %w", m.HomeTeam, err)
		}
		if away, err = e.signals.Injuries(ctx, m.AwayTeam); err != nil {
			return nil, nil, fmt.Errorf("injuries for %s: %w", m.AwayTeam, err)
		}
	}
	if len(home) == 0 && len(away) == 0 {
		home, away = splitInjuries(m)
	}
	return home, away, nil
}

// SignalsFromRecord derives team signals from the match record itself:
// form percentage from the W/D/L run, home win and away loss rates from the
// share of wins and losses in it.
func SignalsFromRecord(m models.MatchRecord) (home, away models.TeamSignals) {
	home = models.TeamSignals{
		Team:           m.HomeTeam,
		FormPercentage: formPercentage(m.HomeForm),
		HomeWinRate:    resultShare(m.HomeForm, "W"),
		AwayLossRate:   resultShare(m.HomeForm, "L"),
		GoalsScoredAvg: float64(m.HomeGoalsScored) / 5,
		LeaguePosition: m.HomePosition,
		LeagueSize:     m.LeagueSize,
	}
	away = models.TeamSignals{
		Team:           m.AwayTeam,
		FormPercentage: formPercentage(m.AwayForm),
		HomeWinRate:    resultShare(m.AwayForm, "W"),
		AwayLossRate:   resultShare(m.AwayForm, "L"),
		GoalsScoredAvg: float64(m.AwayGoalsScored) / 5,
		LeaguePosition: m.AwayPosition,
		LeagueSize:     m.LeagueSize,
	}
	return home, away
}

func formPercentage(form []string) float64 {
	if len(form) == 0 {
		return neutralScore
	}
	return float64(features.FormPoints(form)) / float64(3*len(form)) * 100
}

func resultShare(form []string, result string) float64 {
	if len(form) == 0 {
		return 0.5
	}
	n := 0
	for _, r := range form {
		if strings.EqualFold(strings.TrimSpace(r), result) {
			n++
		}
	}
	return float64(n) / float64(len(form))
}

func splitInjuries(m models.MatchRecord) (home, away []models.Injury) {
	for _, inj := range m.Injuries {
		switch inj.Team {
		case m.HomeTeam:
			home = append(home, inj)
		case m.AwayTeam:
			away = append(away, inj)
		}
	}
	return home, away
}

func leagueSize(home, away models.TeamSignals) int {
	if home.LeagueSize > 0 {
		return home.LeagueSize
	}
	return away.LeagueSize
}

// formScore centres the home-minus-away form percentage on 50.
func formScore(homePct, awayPct float64) float64 {
	return clamp(neutralScore+(homePct-awayPct)/2, 0, 100)
}

// homeAwayScore averages the home side's home win rate with the visitor's
// away loss rate.
func homeAwayScore(homeWinRate, awayLossRate float64) float64 {
	return clamp((homeWinRate+awayLossRate)/2*100, 0, 100)
}

// headToHeadScore is the home side's win percentage, 50 with no meetings.
func headToHeadScore(t features.Tally) float64 {
	if t.Meetings() == 0 {
		return neutralScore
	}
	return float64(t.Wins) / float64(t.Meetings()) * 100
}

func injuryImpact(injuries []models.Injury) float64 {
	impact := 0.0
	for _, inj := range injuries {
		w, ok := injurySeverity[strings.ToLower(strings.TrimSpace(inj.Severity))]
		if !ok {
			w = injurySeverity["minor"]
		}
		impact += w
	}
	return impact
}

// injuryScore rises above 50 when the visitors are hit harder.
func injuryScore(home, away []models.Injury) float64 {
	return clamp(neutralScore-(injuryImpact(home)-injuryImpact(away))*injuryScale, 0, 100)
}

// motivation is higher for teams chasing the title places or fighting
// relegation.
func motivation(position, size int) float64 {
	if position <= 0 {
		return 5
	}
	if position <= 4 {
		return 10
	}
	if size > 0 && position > size-3 {
		return 10
	}
	return 5
}

func leagueScore(homePos, awayPos, size int) float64 {
	return clamp(neutralScore+motivation(homePos, size)-motivation(awayPos, size), 0, 100)
}

func weightedConfidence(s models.FactorScores, w Weights) float64 {
	c := s.Form*w.Form +
		s.HomeAway*w.HomeAway +
		s.HeadToHead*w.HeadToHead +
		s.Injury*w.Injury +
		s.League*w.League
	return clamp(c, 0, 100)
}

// decide walks the fixed decision tree; ok is false when no side is picked.
func decide(s models.FactorScores, homeGoalsAvg, awayGoalsAvg float64) (models.BetType, bool) {
	switch {
	case s.Form > 60 && s.HomeAway > 60:
		return models.BetHomeWin, true
	case s.Form < 40 && s.HeadToHead < 40:
		return models.BetAwayWin, true
	case homeGoalsAvg > bttsGoalsLine && awayGoalsAvg > bttsGoalsLine:
		return models.BetBTTS, true
	case s.Form >= 50 && s.HomeAway >= 50:
		return models.BetHomeWin, true
	}
	return "", false
}

// categorize buckets by confidence and price. Prices of 0 (unknown) never
// qualify for the price-dependent buckets. The final fallback is VALUE_BET
// even below the 60-75 band.
func categorize(confidence int, price float64) models.Category {
	c := float64(confidence)
	value := 0.0
	if price > 1 {
		value = (price*c/100 - 1) * 100
	}

	switch {
	case c >= 75 && price > 1 && price <= 2.0:
		return models.CategorySafe
	case c >= 60 && c < 75 && value > 10:
		return models.CategoryValue
	case c >= 60 && c <= 70 && price > 3.0:
		return models.CategoryRisky
	}
	return models.CategoryValue
}

func side(bet models.BetType, m models.MatchRecord) string {
	switch bet {
	case models.BetHomeWin:
		return m.HomeTeam
	case models.BetAwayWin:
		return m.AwayTeam
	}
	return "Both Teams"
}
