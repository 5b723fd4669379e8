package predictor

import (
	"math"

	"github.com/Vodeneev/footytips/internal/pkg/features"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// Bookmaker-free priors for home/draw/away, used when nobody prices 1X2.
const (
	priorHome = 0.46
	priorDraw = 0.26
	priorAway = 0.28
)

// Predict runs the value mode: it blends market consensus with form, goal
// and head-to-head signals, then keeps at most one bet whose edge and
// probability both clear the configured thresholds.
func (e *Engine) Predict(m models.MatchRecord, v features.Vector) models.PredictionResult {
	model := e.modelProbabilities(v)

	res := models.PredictionResult{
		MatchID:   m.Key(),
		Kickoff:   m.Kickoff,
		HomeTeam:  m.HomeTeam,
		AwayTeam:  m.AwayTeam,
		League:    m.League,
		Model:     model,
		Market:    v.Market,
		BestOdds:  v.BestOdds,
		CreatedAt: e.now().UTC(),
	}
	res.ValueBet = selectValueBet(model, v.Market, v.BestOdds, e.cfg)
	res.Reasoning, res.KeyFactors = valueReasoning(m, v, res.ValueBet)
	return res
}

// modelProbabilities estimates every outcome's probability.
func (e *Engine) modelProbabilities(v features.Vector) models.MarketProbabilities {
	formDiff := float64(v.HomeFormPoints-v.AwayFormPoints) / 15
	powerDiff := clamp(((v.HomeGoalsScoredAvg-v.HomeGoalsConcededAvg)-
		(v.AwayGoalsScoredAvg-v.AwayGoalsConcededAvg))/4, -1, 1)
	h2hDiff := 0.0
	if v.H2HMeetings > 0 {
		h2hDiff = float64(v.H2HHomeWins-v.H2HAwayWins) / float64(v.H2HMeetings)
	}

	baseHome, baseDraw, baseAway := priorHome, priorDraw, priorAway
	if v.Market.Home > 0 && v.Market.Draw > 0 && v.Market.Away > 0 {
		baseHome, baseDraw, baseAway = v.Market.Home, v.Market.Draw, v.Market.Away
	}

	shift := 0.10*formDiff + 0.08*powerDiff + 0.05*h2hDiff + 0.03
	home := clamp(baseHome+shift, 0.05, 0.90)
	away := clamp(baseAway-shift, 0.05, 0.90)
	draw := clamp(baseDraw-0.04*math.Abs(formDiff), 0.05, 0.50)
	total := home + draw + away

	var p models.MarketProbabilities
	p.Home, p.Draw, p.Away = home/total, draw/total, away/total

	homeAdv := v.HomeAdvantage
	if homeAdv <= 0 {
		homeAdv = features.DefaultHomeAdvantage
	}
	homeXG := (v.HomeGoalsScoredAvg + v.AwayGoalsConcededAvg) / 2 * homeAdv
	awayXG := (v.AwayGoalsScoredAvg + v.HomeGoalsConcededAvg) / 2

	cross := (1 - math.Exp(-homeXG)) * (1 - math.Exp(-awayXG))
	h2hRate := cross
	if v.H2HMeetings > 0 {
		h2hRate = v.H2HBTTSRate
	}
	var btts float64
	if v.Market.BTTSYes > 0 {
		btts = 0.5*v.Market.BTTSYes + 0.3*cross + 0.2*h2hRate
	} else {
		btts = 0.6*cross + 0.4*h2hRate
	}
	p.BTTSYes = clamp(btts, 0.1, 0.9)
	p.BTTSNo = 1 - p.BTTSYes

	xgOver := poissonAtLeast(homeXG+awayXG, 3)
	over := xgOver
	if v.Market.Over25 > 0 {
		over = 0.6*v.Market.Over25 + 0.4*xgOver
	}
	p.Over25 = clamp(over, 0.1, 0.9)
	p.Under25 = 1 - p.Over25
	return p
}

// poissonAtLeast returns P(X >= k) for X ~ Poisson(lambda).
func poissonAtLeast(lambda float64, k int) float64 {
	if lambda <= 0 {
		return 0
	}
	term := math.Exp(-lambda)
	cdf := 0.0
	for i := 0; i < k; i++ {
		if i > 0 {
			term *= lambda / float64(i)
		}
		cdf += term
	}
	return 1 - cdf
}

// selectValueBet picks the outcome with the largest model-minus-market edge
// among priced outcomes and returns it only when the edge and the model
// probability both exceed their thresholds.
func selectValueBet(model, market models.MarketProbabilities, best models.BestOdds, cfg Config) *models.ValueBet {
	var pick models.Outcome
	bestEdge := math.Inf(-1)
	for _, o := range models.Outcomes {
		if market.Get(o) <= 0 || best.Get(o).Decimal <= 1 {
			continue
		}
		edge := model.Get(o) - market.Get(o)
		if edge > bestEdge {
			pick, bestEdge = o, edge
		}
	}
	if pick == "" {
		return nil
	}

	prob := model.Get(pick)
	if bestEdge <= cfg.EdgeThreshold || prob <= cfg.ConfidenceThreshold {
		return nil
	}

	price := best.Get(pick)
	return &models.ValueBet{
		Outcome:       pick,
		BetLabel:      pick.Label(),
		Bookmaker:     price.Bookmaker,
		Price:         price.Decimal,
		Confidence:    prob,
		Edge:          bestEdge,
		ExpectedValue: price.Decimal*prob - 1,
	}
}
