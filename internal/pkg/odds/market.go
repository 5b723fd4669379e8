package odds

import "github.com/Vodeneev/footytips/internal/pkg/models"

// Market is one bookmaker's quotes normalized into canonical form.
type Market struct {
	Bookmaker string `json:"bookmaker"`

	Home models.OddsQuote `json:"home"`
	Draw models.OddsQuote `json:"draw"`
	Away models.OddsQuote `json:"away"`

	BTTSYes models.OddsQuote `json:"btts_yes"`
	BTTSNo  models.OddsQuote `json:"btts_no"`
	Over25  models.OddsQuote `json:"over_2_5"`
	Under25 models.OddsQuote `json:"under_2_5"`

	// Margin is the 1X2 overround, zero unless all three sides are quoted.
	Margin float64 `json:"margin"`

	// Fair holds de-vigged probabilities. A market is only de-vigged when
	// every side of it is quoted.
	Fair models.MarketProbabilities `json:"fair"`
}

// Has1X2 reports whether home, draw and away are all priced.
func (m Market) Has1X2() bool {
	return m.Home.Valid() && m.Draw.Valid() && m.Away.Valid()
}

// Quote returns the canonical quote for an outcome.
func (m Market) Quote(o models.Outcome) models.OddsQuote {
	switch o {
	case models.OutcomeHomeWin:
		return m.Home
	case models.OutcomeDraw:
		return m.Draw
	case models.OutcomeAwayWin:
		return m.Away
	case models.OutcomeBTTSYes:
		return m.BTTSYes
	case models.OutcomeBTTSNo:
		return m.BTTSNo
	case models.OutcomeOver25:
		return m.Over25
	case models.OutcomeUnder25:
		return m.Under25
	}
	return models.OddsQuote{}
}

// Normalize converts raw bookmaker prices into a Market.
func Normalize(q models.BookmakerQuotes) Market {
	m := Market{
		Bookmaker: q.Bookmaker,
		Home:      ToCanonical(q.Home),
		Draw:      ToCanonical(q.Draw),
		Away:      ToCanonical(q.Away),
		BTTSYes:   ToCanonical(q.BTTSYes),
		BTTSNo:    ToCanonical(q.BTTSNo),
		Over25:    ToCanonical(q.Over25),
		Under25:   ToCanonical(q.Under25),
	}

	if m.Has1X2() {
		m.Margin = Margin(q.Home, q.Draw, q.Away)
		fair := FairProbabilities([]float64{q.Home, q.Draw, q.Away})
		m.Fair.Home, m.Fair.Draw, m.Fair.Away = fair[0], fair[1], fair[2]
	}

	if m.BTTSYes.Valid() && m.BTTSNo.Valid() {
		pair := FairProbabilities([]float64{q.BTTSYes, q.BTTSNo})
		m.Fair.BTTSYes, m.Fair.BTTSNo = pair[0], pair[1]
	}
	if m.Over25.Valid() && m.Under25.Valid() {
		pair := FairProbabilities([]float64{q.Over25, q.Under25})
		m.Fair.Over25, m.Fair.Under25 = pair[0], pair[1]
	}
	return m
}

// NormalizeAll normalizes every bookmaker, skipping ones without any valid
// 1X2 price. Partial 1X2 markets are kept for best-price selection but carry
// no fair probabilities or margin.
func NormalizeAll(quotes []models.BookmakerQuotes) []Market {
	out := make([]Market, 0, len(quotes))
	for _, q := range quotes {
		if !ValidPrice(q.Home) && !ValidPrice(q.Draw) && !ValidPrice(q.Away) {
			continue
		}
		out = append(out, Normalize(q))
	}
	return out
}
