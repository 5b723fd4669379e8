package features

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/footytips/internal/pkg/models"
)

func TestFormPoints(t *testing.T) {
	tests := []struct {
		form []string
		want int
	}{
		{[]string{"W", "W", "D", "L", "W"}, 10},
		{[]string{"w", "d", "l"}, 4},
		{[]string{"W", "W", "W", "W", "W"}, 15},
		{[]string{"X", "", "L"}, 0},
		{nil, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormPoints(tt.form), "form %v", tt.form)
	}
}

func TestBuild_GoalsAverageUsesFixedWindow(t *testing.T) {
	// Three recorded matches, still divided by five.
	v := Build(models.MatchRecord{
		HomeForm:        []string{"W", "W", "W"},
		HomeGoalsScored: 6,
		AwayGoalsScored: 5,
	}, Options{})

	assert.InDelta(t, 1.2, v.HomeGoalsScoredAvg, 1e-12)
	assert.InDelta(t, 1.0, v.AwayGoalsScoredAvg, 1e-12)
	assert.Equal(t, 9, v.HomeFormPoints)
	assert.Equal(t, DefaultHomeAdvantage, v.HomeAdvantage)
}

func TestHeadToHead(t *testing.T) {
	d := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []models.HeadToHeadRecord{
		{Date: d, HomeTeam: "Arsenal FC", AwayTeam: "Chelsea", HomeGoals: 2, AwayGoals: 1},
		{Date: d, HomeTeam: "Chelsea", AwayTeam: "Arsenal", HomeGoals: 0, AwayGoals: 0},
		{Date: d, HomeTeam: "Chelsea FC", AwayTeam: "Arsenal", HomeGoals: 3, AwayGoals: 1},
		{Date: d, HomeTeam: "Chelsea", AwayTeam: "Arsenal", HomeGoals: 1, AwayGoals: 2},
		{Date: d, HomeTeam: "Leeds", AwayTeam: "Fulham", HomeGoals: 1, AwayGoals: 2},
	}

	tally := HeadToHead("Arsenal", records)
	assert.Equal(t, Tally{Wins: 2, Draws: 1, Losses: 1}, tally)
	assert.Equal(t, 4, tally.Meetings())

	other := HeadToHead("Chelsea", records[:4])
	assert.Equal(t, Tally{Wins: 1, Draws: 1, Losses: 2}, other)
}

func TestBuild_HeadToHeadAndMarket(t *testing.T) {
	m := models.MatchRecord{
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		HeadToHead: []models.HeadToHeadRecord{
			{HomeTeam: "Arsenal", AwayTeam: "Chelsea", HomeGoals: 2, AwayGoals: 1},
			{HomeTeam: "Chelsea", AwayTeam: "Arsenal", HomeGoals: 0, AwayGoals: 0},
		},
		Markets: []models.BookmakerQuotes{
			{Bookmaker: "a", Home: 2.0, Draw: 3.5, Away: 4.0, BTTSYes: 1.8, BTTSNo: 2.0},
			{Bookmaker: "b", Home: 2.1, Draw: 3.4, Away: 3.8, Over25: 1.9, Under25: 1.9},
		},
	}

	v := Build(m, Options{HomeAdvantage: 1.2})
	assert.Equal(t, 2, v.H2HMeetings)
	assert.Equal(t, 1, v.H2HHomeWins)
	assert.Equal(t, 1, v.H2HDraws)
	assert.Equal(t, 0, v.H2HAwayWins)
	assert.InDelta(t, 1.5, v.H2HAvgGoals, 1e-12)
	assert.InDelta(t, 0.5, v.H2HBTTSRate, 1e-12)
	assert.Equal(t, 1.2, v.HomeAdvantage)

	require.True(t, v.HasOdds)
	assert.InDelta(t, 1.0, v.Market.Home+v.Market.Draw+v.Market.Away, 1e-9)
	// BTTS priced only by a, totals only by b.
	assert.InDelta(t, (1/1.8)/(1/1.8+1/2.0), v.Market.BTTSYes, 1e-12)
	assert.InDelta(t, 0.5, v.Market.Over25, 1e-12)
	assert.Equal(t, "b", v.BestOdds.Home.Bookmaker)
	assert.Equal(t, "a", v.BestOdds.Away.Bookmaker)
	assert.Greater(t, v.Margin, 0.0)
}

func TestBuild_NoOddsDegradesToZero(t *testing.T) {
	v := Build(models.MatchRecord{
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Markets:  []models.BookmakerQuotes{{Bookmaker: "broken", Home: 1, Draw: 0, Away: -1}},
	}, Options{})

	assert.False(t, v.HasOdds)
	assert.Equal(t, models.MarketProbabilities{}, v.Market)
	assert.Equal(t, models.BestOdds{}, v.BestOdds)
	assert.Zero(t, v.H2HMeetings)
}

func TestBuild_PartialTipsMarketKeepsConsensus(t *testing.T) {
	full := models.BookmakerQuotes{Bookmaker: "pinnacle", Home: 2.0, Draw: 3.4, Away: 3.8}
	alone := Build(models.MatchRecord{HomeTeam: "Arsenal", AwayTeam: "Chelsea", Markets: []models.BookmakerQuotes{full}}, Options{})

	v := Build(models.MatchRecord{
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Markets: []models.BookmakerQuotes{
			full,
			{Bookmaker: "tips", Home: 2.2},
		},
	}, Options{})

	require.True(t, v.HasOdds)
	assert.InDelta(t, 1.0, v.Market.Home+v.Market.Draw+v.Market.Away, 1e-9)
	assert.InDelta(t, alone.Market.Home, v.Market.Home, 1e-12)
	assert.InDelta(t, 0.4729, v.Market.Home, 1e-4)
	assert.InDelta(t, alone.Margin, v.Margin, 1e-12)
	assert.Greater(t, v.Margin, 0.0)

	// The tip price still counts as a best price.
	assert.Equal(t, models.BestPrice{Bookmaker: "tips", Decimal: 2.2}, v.BestOdds.Home)
	assert.Equal(t, "pinnacle", v.BestOdds.Draw.Bookmaker)
}
