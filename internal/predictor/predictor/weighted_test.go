package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/footytips/internal/pkg/features"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

func TestWeightedConfidence_Scenario(t *testing.T) {
	scores := models.FactorScores{Form: 80, HomeAway: 75, HeadToHead: 65, Injury: 60, League: 55}
	c := weightedConfidence(scores, DefaultConfig().Weights)
	assert.InDelta(t, 70.25, c, 1e-9)
	assert.Equal(t, models.CategoryValue, categorize(70, 0))
	assert.Equal(t, models.CategoryValue, categorize(70, 2.5))
}

func TestWeightedConfidence_Clamped(t *testing.T) {
	scores := models.FactorScores{Form: 100, HomeAway: 100, HeadToHead: 100, Injury: 100, League: 100}
	assert.Equal(t, 100.0, weightedConfidence(scores, Weights{Form: 1, HomeAway: 1}))
	assert.Equal(t, 0.0, weightedConfidence(models.FactorScores{}, DefaultConfig().Weights))
}

func TestSubScores(t *testing.T) {
	assert.Equal(t, 70.0, formScore(80, 40))
	assert.Equal(t, 0.0, formScore(0, 100))
	assert.Equal(t, 100.0, formScore(100, 0))
	assert.InDelta(t, 70.0, homeAwayScore(0.8, 0.6), 1e-9)

	assert.Equal(t, 50.0, headToHeadScore(features.Tally{}))
	assert.Equal(t, 50.0, headToHeadScore(features.Tally{Wins: 2, Draws: 1, Losses: 1}))
	assert.Equal(t, 100.0, headToHeadScore(features.Tally{Wins: 3}))

	home := []models.Injury{{Severity: "critical"}}
	away := []models.Injury{{Severity: "Minor"}, {Severity: "moderate"}}
	assert.Equal(t, 42.5, injuryScore(home, away))
	assert.Equal(t, 60.0, injuryScore(nil, []models.Injury{{Severity: "major"}}))
	assert.Equal(t, 52.5, injuryScore(nil, []models.Injury{{Severity: "unknown"}}))
	assert.Equal(t, 0.0, injuryScore(make([]models.Injury, 0), nil)-50)

	critical := []models.Injury{{Severity: "critical"}, {Severity: "critical"}, {Severity: "critical"}, {Severity: "critical"}}
	assert.Equal(t, 0.0, injuryScore(critical, nil))

	assert.Equal(t, 55.0, leagueScore(2, 15, 20))
	assert.Equal(t, 55.0, leagueScore(19, 10, 20))
	assert.Equal(t, 50.0, leagueScore(10, 11, 20))
	assert.Equal(t, 45.0, leagueScore(10, 1, 20))
	assert.Equal(t, 50.0, leagueScore(0, 0, 0))
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name       string
		scores     models.FactorScores
		homeGoals  float64
		awayGoals  float64
		want       models.BetType
		wantPicked bool
	}{
		{"strong home", models.FactorScores{Form: 61, HomeAway: 61}, 0, 0, models.BetHomeWin, true},
		{"weak home", models.FactorScores{Form: 39, HomeAway: 70, HeadToHead: 39}, 0, 0, models.BetAwayWin, true},
		{"goals both ways", models.FactorScores{Form: 45, HomeAway: 45, HeadToHead: 50}, 1.6, 1.8, models.BetBTTS, true},
		{"one side scores", models.FactorScores{Form: 45, HomeAway: 45, HeadToHead: 50}, 1.6, 1.5, "", false},
		{"moderate home", models.FactorScores{Form: 50, HomeAway: 50}, 0, 0, models.BetHomeWin, true},
		{"strong form but weak venue", models.FactorScores{Form: 70, HomeAway: 40}, 0, 0, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decide(tt.scores, tt.homeGoals, tt.awayGoals)
			assert.Equal(t, tt.wantPicked, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name       string
		confidence int
		price      float64
		want       models.Category
	}{
		{"safe", 80, 1.80, models.CategorySafe},
		{"safe at price boundary", 75, 2.0, models.CategorySafe},
		{"high confidence long price falls back", 80, 2.5, models.CategoryValue},
		{"value band", 65, 2.2, models.CategoryValue},
		{"value band, no value falls back", 65, 1.5, models.CategoryValue},
		// The value band is checked first, so long prices in 60..70 land there.
		{"long price shadowed by value band", 65, 3.5, models.CategoryValue},
		{"unknown price", 90, 0, models.CategoryValue},
		{"below every band", 40, 1.5, models.CategoryValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, categorize(tt.confidence, tt.price))
		})
	}
}

func arsenalChelsea() models.MatchRecord {
	return models.MatchRecord{
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Kickoff:  testKickoff,
		League:   "Premier League",
	}
}

func storeWithStrongHome() *fakeSignals {
	return &fakeSignals{
		teams: map[string]models.TeamSignals{
			"Arsenal": {Team: "Arsenal", FormPercentage: 90, HomeWinRate: 0.8, GoalsScoredAvg: 2.1, LeaguePosition: 2, LeagueSize: 20},
			"Chelsea": {Team: "Chelsea", FormPercentage: 30, AwayLossRate: 0.7, GoalsScoredAvg: 1.1, LeaguePosition: 10, LeagueSize: 20},
		},
		h2h: []models.HeadToHeadRecord{
			{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeGoals: 2, AwayGoals: 0},
			{HomeTeam: "Chelsea", AwayTeam: "Arsenal", HomeGoals: 1, AwayGoals: 3},
			{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeGoals: 0, AwayGoals: 1},
		},
		injuries: map[string][]models.Injury{
			"Chelsea": {{Team: "Chelsea", Player: "Keeper", Severity: "major"}},
		},
	}
}

func TestRecommend_FromStoredSignals(t *testing.T) {
	e := fixedEngine(DefaultConfig(), storeWithStrongHome())
	v := features.Vector{BestOdds: models.BestOdds{Home: models.BestPrice{Bookmaker: "b1", Decimal: 2.5}}}

	rec, err := e.Recommend(context.Background(), arsenalChelsea(), v)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, 80.0, rec.Scores.Form)
	assert.InDelta(t, 75.0, rec.Scores.HomeAway, 1e-9)
	assert.InDelta(t, 200.0/3, rec.Scores.HeadToHead, 1e-9)
	assert.Equal(t, 60.0, rec.Scores.Injury)
	assert.Equal(t, 55.0, rec.Scores.League)

	// 24 + 18.75 + 13.33 + 9 + 5.5 = 70.58
	assert.Equal(t, 71, rec.Confidence)
	assert.Equal(t, models.BetHomeWin, rec.BetType)
	assert.Equal(t, "Arsenal", rec.RecommendedSide)
	assert.Equal(t, models.CategoryValue, rec.Category)
	assert.Equal(t, 2.5, rec.Odds)
	assert.Equal(t, "b1", rec.Bookmaker)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, arsenalChelsea().Key(), rec.MatchID)
	assert.Equal(t, []string{TagExcellentForm, TagHomeAdvantage, TagH2HDominance, TagInjuryAdvantage, TagMotivation}, rec.KeyFactors)
	assert.Contains(t, rec.Reasoning, "Arsenal arrive in excellent form")
}

func TestRecommend_BelowMinConfidence(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinConfidence = 80
	e := fixedEngine(cfg, storeWithStrongHome())

	rec, err := e.Recommend(context.Background(), arsenalChelsea(), features.Vector{})
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRecommend_FallsBackToRecordSignals(t *testing.T) {
	e := fixedEngine(DefaultConfig(), &fakeSignals{})
	m := arsenalChelsea()
	m.HomeForm = []string{"W", "W", "W", "W", "W"}
	m.AwayForm = []string{"L", "L", "L", "L", "D"}
	m.HomePosition, m.AwayPosition, m.LeagueSize = 1, 18, 20

	rec, err := e.Recommend(context.Background(), m, features.Vector{})
	require.NoError(t, err)
	require.NotNil(t, rec)

	// form 50 + (100 - 6.67)/2, home/away (1.0 + 0.8)/2
	assert.InDelta(t, 50+(100-100.0/15)/2, rec.Scores.Form, 1e-9)
	assert.InDelta(t, 90.0, rec.Scores.HomeAway, 1e-9)
	assert.Equal(t, 50.0, rec.Scores.HeadToHead)
	assert.Equal(t, 50.0, rec.Scores.League)
	assert.Equal(t, models.BetHomeWin, rec.BetType)
	assert.Zero(t, rec.Odds)
}

func TestRecommend_StoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	e := fixedEngine(DefaultConfig(), &fakeSignals{err: boom})

	_, err := e.Recommend(context.Background(), arsenalChelsea(), features.Vector{})
	assert.ErrorIs(t, err, boom)
}

func TestRecommend_BalancedMatchupReasoning(t *testing.T) {
	e := fixedEngine(DefaultConfig(), nil)
	m := arsenalChelsea()
	m.HomeForm = []string{"W", "D", "L"}
	m.AwayForm = []string{"W", "D", "L"}

	_, tags := weightedReasoning(m, models.FactorScores{Form: 50, HomeAway: 50, HeadToHead: 50, Injury: 50, League: 50})
	assert.Equal(t, []string{TagBalanced}, tags)

	rec, err := e.Recommend(context.Background(), m, features.Vector{})
	require.NoError(t, err)
	assert.Nil(t, rec, "neutral signals stay below the minimum confidence")
}
