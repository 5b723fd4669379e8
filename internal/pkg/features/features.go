// Package features turns a reconciled match record into the numeric inputs
// of the scoring engine.
package features

import (
	"strings"

	"github.com/Vodeneev/footytips/internal/pkg/identity"
	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/odds"
)

// DefaultHomeAdvantage scales the home side's expected goals.
const DefaultHomeAdvantage = 1.10

// formWindow is the fixed divisor of goal averages. Sources report last-5
// tallies, so a team with fewer recorded matches is still divided by 5.
const formWindow = 5

// Options tune feature extraction.
type Options struct {
	HomeAdvantage float64
}

// Vector is the feature set of one match.
type Vector struct {
	HomeFormPoints int `json:"home_form_points"` // 0..15
	AwayFormPoints int `json:"away_form_points"`

	HomeGoalsScoredAvg   float64 `json:"home_goals_scored_avg"`
	HomeGoalsConcededAvg float64 `json:"home_goals_conceded_avg"`
	AwayGoalsScoredAvg   float64 `json:"away_goals_scored_avg"`
	AwayGoalsConcededAvg float64 `json:"away_goals_conceded_avg"`

	// Head-to-head from the home team's perspective.
	H2HMeetings int     `json:"h2h_meetings"`
	H2HHomeWins int     `json:"h2h_home_wins"`
	H2HDraws    int     `json:"h2h_draws"`
	H2HAwayWins int     `json:"h2h_away_wins"`
	H2HAvgGoals float64 `json:"h2h_avg_goals"`
	H2HBTTSRate float64 `json:"h2h_btts_rate"`

	HomeAdvantage float64 `json:"home_advantage"`

	// Market holds bookmaker-consensus fair probabilities; zero when unpriced.
	Market   models.MarketProbabilities `json:"market"`
	BestOdds models.BestOdds            `json:"best_odds"`
	HasOdds  bool                       `json:"has_odds"`
	Margin   float64                    `json:"margin"` // mean 1X2 overround
}

// Build extracts the feature vector for a match.
func Build(m models.MatchRecord, opts Options) Vector {
	v := Vector{
		HomeFormPoints:       FormPoints(m.HomeForm),
		AwayFormPoints:       FormPoints(m.AwayForm),
		HomeGoalsScoredAvg:   goalsAverage(m.HomeGoalsScored),
		HomeGoalsConcededAvg: goalsAverage(m.HomeGoalsConceded),
		AwayGoalsScoredAvg:   goalsAverage(m.AwayGoalsScored),
		AwayGoalsConcededAvg: goalsAverage(m.AwayGoalsConceded),
		HomeAdvantage:        opts.HomeAdvantage,
	}
	if v.HomeAdvantage <= 0 {
		v.HomeAdvantage = DefaultHomeAdvantage
	}

	tally := HeadToHead(m.HomeTeam, m.HeadToHead)
	v.H2HMeetings = tally.Meetings()
	v.H2HHomeWins = tally.Wins
	v.H2HDraws = tally.Draws
	v.H2HAwayWins = tally.Losses
	v.H2HAvgGoals, v.H2HBTTSRate = headToHeadGoals(m.HeadToHead)

	markets := odds.NormalizeAll(m.Markets)
	v.Market, v.Margin = consensus(markets)
	// No bookmakers leaves the market block zero-valued.
	if best, err := odds.BestOdds(markets); err == nil {
		v.BestOdds = best
		v.HasOdds = true
	}
	return v
}

// FormPoints scores a form string W=3, D=1, L=0. Unknown letters score 0.
func FormPoints(form []string) int {
	points := 0
	for _, r := range form {
		switch strings.ToUpper(strings.TrimSpace(r)) {
		case "W":
			points += 3
		case "D":
			points++
		}
	}
	return points
}

func goalsAverage(tally int) float64 {
	return float64(tally) / formWindow
}

// Tally counts head-to-head results for one team.
type Tally struct {
	Wins   int
	Draws  int
	Losses int
}

// Meetings is the number of counted meetings.
func (t Tally) Meetings() int {
	return t.Wins + t.Draws + t.Losses
}

// HeadToHead counts the team's wins, draws and losses across prior
// meetings. Meetings the team cannot be matched to are ignored.
func HeadToHead(team string, records []models.HeadToHeadRecord) Tally {
	var t Tally
	for _, r := range records {
		var own, other int
		switch {
		case identity.NamesMatch(team, r.HomeTeam):
			own, other = r.HomeGoals, r.AwayGoals
		case identity.NamesMatch(team, r.AwayTeam):
			own, other = r.AwayGoals, r.HomeGoals
		default:
			continue
		}
		switch {
		case own > other:
			t.Wins++
		case own == other:
			t.Draws++
		default:
			t.Losses++
		}
	}
	return t
}

func headToHeadGoals(records []models.HeadToHeadRecord) (avgGoals, bttsRate float64) {
	if len(records) == 0 {
		return 0, 0
	}
	goals, btts := 0, 0
	for _, r := range records {
		goals += r.HomeGoals + r.AwayGoals
		if r.HomeGoals > 0 && r.AwayGoals > 0 {
			btts++
		}
	}
	n := float64(len(records))
	return float64(goals) / n, float64(btts) / n
}

// consensus averages each outcome's fair probability over the bookmakers
// that fully price its market, along with the mean 1X2 margin.
func consensus(markets []odds.Market) (models.MarketProbabilities, float64) {
	var out models.MarketProbabilities
	if len(markets) == 0 {
		return out, 0
	}

	mean := func(o models.Outcome) float64 {
		sum, n := 0.0, 0
		for _, m := range markets {
			if p := m.Fair.Get(o); p > 0 {
				sum += p
				n++
			}
		}
		if n == 0 {
			return 0
		}
		return sum / float64(n)
	}

	out.Home = mean(models.OutcomeHomeWin)
	out.Draw = mean(models.OutcomeDraw)
	out.Away = mean(models.OutcomeAwayWin)
	out.BTTSYes = mean(models.OutcomeBTTSYes)
	out.BTTSNo = mean(models.OutcomeBTTSNo)
	out.Over25 = mean(models.OutcomeOver25)
	out.Under25 = mean(models.OutcomeUnder25)

	margin, n := 0.0, 0
	for _, m := range markets {
		if m.Has1X2() {
			margin += m.Margin
			n++
		}
	}
	if n == 0 {
		return out, 0
	}
	return out, margin / float64(n)
}
