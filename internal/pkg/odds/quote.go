// Package odds converts bookmaker decimal prices into canonical quotes,
// measures bookmaker margin and derives de-vigged fair probabilities.
package odds

import (
	"math"
	"strconv"

	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// ValidPrice reports whether v is a usable decimal price (> 1, finite).
func ValidPrice(v float64) bool {
	return v > 1 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ImpliedProbability returns 1/d, or 0 for an invalid price.
func ImpliedProbability(d float64) float64 {
	if !ValidPrice(d) {
		return 0
	}
	return 1 / d
}

// DecimalFromProbability returns 1/p for p in (0, 1], otherwise 0.
func DecimalFromProbability(p float64) float64 {
	if p <= 0 || p > 1 || math.IsNaN(p) {
		return 0
	}
	return 1 / p
}

type fraction struct{ num, den int }

// commonFractions are the traditional UK prices, tried before searching.
var commonFractions = []fraction{
	{1, 1}, {1, 2}, {2, 1}, {3, 1}, {4, 1}, {5, 1}, {6, 1}, {7, 1}, {8, 1}, {9, 1}, {10, 1},
	{1, 3}, {1, 4}, {1, 5}, {2, 5}, {4, 6}, {4, 5}, {8, 11}, {10, 11}, {11, 10},
	{6, 5}, {5, 4}, {11, 8}, {6, 4}, {3, 2}, {13, 8}, {7, 4}, {15, 8},
	{9, 4}, {5, 2}, {11, 4}, {7, 2}, {9, 2}, {11, 2},
}

const fractionTolerance = 0.001

// Fractional renders a decimal price as "n/den". Common prices are matched
// first; otherwise denominators 1..20 are searched for the closest fit.
func Fractional(d float64) string {
	if !ValidPrice(d) {
		return ""
	}
	x := d - 1

	for _, f := range commonFractions {
		if math.Abs(float64(f.num)/float64(f.den)-x) < fractionTolerance {
			return formatFraction(f)
		}
	}

	best := fraction{1, 1}
	bestErr := math.Inf(1)
	for den := 1; den <= 20; den++ {
		num := int(math.Round(x * float64(den)))
		if num < 1 {
			num = 1
		}
		e := math.Abs(float64(num)/float64(den) - x)
		if e < bestErr {
			best, bestErr = fraction{num, den}, e
		}
		if e < fractionTolerance {
			break
		}
	}
	return formatFraction(best)
}

func formatFraction(f fraction) string {
	return strconv.Itoa(f.num) + "/" + strconv.Itoa(f.den)
}

// American converts a decimal price to moneyline notation:
// +((d-1)*100) for d >= 2, -100/(d-1) below evens.
func American(d float64) int {
	if !ValidPrice(d) {
		return 0
	}
	if d >= 2 {
		return int(math.Round((d - 1) * 100))
	}
	return int(math.Round(-100 / (d - 1)))
}

// ToCanonical returns the price in every supported format.
// Invalid prices yield the zero quote.
func ToCanonical(d float64) models.OddsQuote {
	if !ValidPrice(d) {
		return models.OddsQuote{}
	}
	return models.OddsQuote{
		Decimal:     d,
		Fractional:  Fractional(d),
		American:    American(d),
		Probability: ImpliedProbability(d),
	}
}
