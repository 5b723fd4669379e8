package odds

// Margin returns the bookmaker overround: the sum of implied probabilities
// minus one. Invalid prices contribute nothing; no valid price yields 0.
func Margin(prices ...float64) float64 {
	total := 0.0
	for _, p := range prices {
		total += ImpliedProbability(p)
	}
	if total == 0 {
		return 0
	}
	return total - 1
}

// FairProbabilities removes the margin uniformly: each implied probability
// is divided by the total implied probability. Invalid prices map to 0.
func FairProbabilities(prices []float64) []float64 {
	implied := make([]float64, len(prices))
	total := 0.0
	for i, p := range prices {
		implied[i] = ImpliedProbability(p)
		total += implied[i]
	}

	fair := make([]float64, len(prices))
	if total == 0 {
		return fair
	}
	for i, p := range implied {
		fair[i] = p / total
	}
	return fair
}

// FairOdds returns the de-vigged decimal prices for a market.
func FairOdds(prices []float64) []float64 {
	probs := FairProbabilities(prices)
	out := make([]float64, len(probs))
	for i, p := range probs {
		out[i] = DecimalFromProbability(p)
	}
	return out
}
