package predictor

import "github.com/Vodeneev/footytips/internal/pkg/config"

// Weights are the weighted-factor mode coefficients.
type Weights struct {
	Form       float64
	HomeAway   float64
	HeadToHead float64
	Injury     float64
	League     float64
}

// Config holds every threshold of both scoring modes.
type Config struct {
	// Value mode.
	EdgeThreshold       float64
	ConfidenceThreshold float64
	HomeAdvantage       float64

	// Weighted-factor mode.
	Weights       Weights
	MinConfidence int

	// Batch fan-out.
	Workers int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		EdgeThreshold:       0.08,
		ConfidenceThreshold: 0.65,
		HomeAdvantage:       1.10,
		Weights: Weights{
			Form:       0.30,
			HomeAway:   0.25,
			HeadToHead: 0.20,
			Injury:     0.15,
			League:     0.10,
		},
		MinConfidence: 60,
		Workers:       4,
	}
}

// ConfigFrom maps the YAML predictor section onto an engine Config.
func ConfigFrom(c config.PredictorConfig) Config {
	return Config{
		EdgeThreshold:       c.EdgeThreshold,
		ConfidenceThreshold: c.ConfidenceThreshold,
		HomeAdvantage:       c.HomeAdvantage,
		Weights: Weights{
			Form:       c.Weights.Form,
			HomeAway:   c.Weights.HomeAway,
			HeadToHead: c.Weights.HeadToHead,
			Injury:     c.Weights.Injury,
			League:     c.Weights.League,
		},
		MinConfidence: c.MinConfidence,
		Workers:       c.Workers,
	}
}
