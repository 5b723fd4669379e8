package models

// OddsQuote is a price in every format we publish. The zero value is an
// unquoted price.
type OddsQuote struct {
	Decimal     float64 `json:"decimal"`
	Fractional  string  `json:"fractional"`
	American    int     `json:"american"`
	Probability float64 `json:"probability"`
}

// Valid reports whether the quote carries a usable decimal price.
func (q OddsQuote) Valid() bool {
	return q.Decimal > 1
}

// Outcome identifies a betting outcome across markets.
type Outcome string

const (
	OutcomeHomeWin Outcome = "home_win"
	OutcomeDraw    Outcome = "draw"
	OutcomeAwayWin Outcome = "away_win"

	OutcomeBTTSYes Outcome = "btts_yes"
	OutcomeBTTSNo  Outcome = "btts_no"

	OutcomeOver25  Outcome = "total_over_2_5"
	OutcomeUnder25 Outcome = "total_under_2_5"
)

// Outcomes lists every outcome in a stable order.
var Outcomes = []Outcome{
	OutcomeHomeWin, OutcomeDraw, OutcomeAwayWin,
	OutcomeBTTSYes, OutcomeBTTSNo,
	OutcomeOver25, OutcomeUnder25,
}

// Label returns a human-readable name for the outcome.
func (o Outcome) Label() string {
	switch o {
	case OutcomeHomeWin:
		return "Home Win"
	case OutcomeDraw:
		return "Draw"
	case OutcomeAwayWin:
		return "Away Win"
	case OutcomeBTTSYes:
		return "Both Teams To Score"
	case OutcomeBTTSNo:
		return "Both Teams To Score - No"
	case OutcomeOver25:
		return "Over 2.5 Goals"
	case OutcomeUnder25:
		return "Under 2.5 Goals"
	default:
		return "Unknown"
	}
}

// Price returns the bookmaker's raw price for the outcome.
func (q BookmakerQuotes) Price(o Outcome) float64 {
	switch o {
	case OutcomeHomeWin:
		return q.Home
	case OutcomeDraw:
		return q.Draw
	case OutcomeAwayWin:
		return q.Away
	case OutcomeBTTSYes:
		return q.BTTSYes
	case OutcomeBTTSNo:
		return q.BTTSNo
	case OutcomeOver25:
		return q.Over25
	case OutcomeUnder25:
		return q.Under25
	}
	return 0
}

// BestPrice is the highest decimal price seen for an outcome.
type BestPrice struct {
	Bookmaker string  `json:"bookmaker"`
	Decimal   float64 `json:"decimal"`
}

// BestOdds is the per-outcome best price snapshot for a match.
type BestOdds struct {
	Home    BestPrice `json:"home"`
	Draw    BestPrice `json:"draw"`
	Away    BestPrice `json:"away"`
	BTTSYes BestPrice `json:"btts_yes,omitempty"`
	BTTSNo  BestPrice `json:"btts_no,omitempty"`
	Over25  BestPrice `json:"over_2_5,omitempty"`
	Under25 BestPrice `json:"under_2_5,omitempty"`
}

// Get returns the best price for an outcome; zero when nobody quoted it.
func (b BestOdds) Get(o Outcome) BestPrice {
	if p := b.slot(o); p != nil {
		return *p
	}
	return BestPrice{}
}

// Offer replaces the stored price when decimal is strictly greater.
func (b *BestOdds) Offer(o Outcome, bookmaker string, decimal float64) {
	p := b.slot(o)
	if p == nil || decimal <= 1 {
		return
	}
	if decimal > p.Decimal {
		p.Bookmaker = bookmaker
		p.Decimal = decimal
	}
}

func (b *BestOdds) slot(o Outcome) *BestPrice {
	switch o {
	case OutcomeHomeWin:
		return &b.Home
	case OutcomeDraw:
		return &b.Draw
	case OutcomeAwayWin:
		return &b.Away
	case OutcomeBTTSYes:
		return &b.BTTSYes
	case OutcomeBTTSNo:
		return &b.BTTSNo
	case OutcomeOver25:
		return &b.Over25
	case OutcomeUnder25:
		return &b.Under25
	}
	return nil
}

// MarketProbabilities holds one probability per outcome. Zero means the
// outcome is not priced.
type MarketProbabilities struct {
	Home    float64 `json:"home"`
	Draw    float64 `json:"draw"`
	Away    float64 `json:"away"`
	BTTSYes float64 `json:"btts_yes"`
	BTTSNo  float64 `json:"btts_no"`
	Over25  float64 `json:"over_2_5"`
	Under25 float64 `json:"under_2_5"`
}

// Get returns the probability stored for an outcome.
func (p MarketProbabilities) Get(o Outcome) float64 {
	switch o {
	case OutcomeHomeWin:
		return p.Home
	case OutcomeDraw:
		return p.Draw
	case OutcomeAwayWin:
		return p.Away
	case OutcomeBTTSYes:
		return p.BTTSYes
	case OutcomeBTTSNo:
		return p.BTTSNo
	case OutcomeOver25:
		return p.Over25
	case OutcomeUnder25:
		return p.Under25
	}
	return 0
}
