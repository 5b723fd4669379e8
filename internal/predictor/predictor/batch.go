package predictor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/Vodeneev/footytips/internal/pkg/features"
	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// Scored is the per-match output of a batch run. Recommendation is nil when
// the weighted mode picked nothing.
type Scored struct {
	Match          models.MatchRecord
	Prediction     models.PredictionResult
	Recommendation *models.Recommendation
}

// MatchFailure records a match that was dropped from the batch.
type MatchFailure struct {
	MatchID string
	Err     error
}

// BatchResult keeps input order for the scored matches.
type BatchResult struct {
	Scored   []Scored
	Failures []MatchFailure
}

// Recommendations returns the non-nil weighted-mode recommendations.
func (r BatchResult) Recommendations() []models.Recommendation {
	out := make([]models.Recommendation, 0, len(r.Scored))
	for _, s := range r.Scored {
		if s.Recommendation != nil {
			out = append(out, *s.Recommendation)
		}
	}
	return out
}

// Predictions returns every value-mode prediction.
func (r BatchResult) Predictions() []models.PredictionResult {
	out := make([]models.PredictionResult, 0, len(r.Scored))
	for _, s := range r.Scored {
		out = append(out, s.Prediction)
	}
	return out
}

// RunBatch scores every match on a bounded worker pool. A failing or
// panicking match is logged and omitted; the rest of the batch continues.
func (e *Engine) RunBatch(ctx context.Context, matches []models.MatchRecord) BatchResult {
	type outcome struct {
		scored Scored
		err    error
		done   bool
	}
	results := make([]outcome, len(matches))

	jobs := make(chan int)
	var wg sync.WaitGroup
	workers := min(e.cfg.Workers, len(matches))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				s, err := e.scoreOne(ctx, matches[i])
				results[i] = outcome{scored: s, err: err, done: true}
			}
		}()
	}

feed:
	for i := range matches {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	var res BatchResult
	for i, r := range results {
		id := matches[i].Key()
		switch {
		case !r.done:
			res.Failures = append(res.Failures, MatchFailure{MatchID: id, Err: ctx.Err()})
		case r.err != nil:
			slog.Error("Predictor: match scoring failed", "match_id", id, "error", r.err)
			res.Failures = append(res.Failures, MatchFailure{MatchID: id, Err: r.err})
		default:
			res.Scored = append(res.Scored, r.scored)
		}
	}

	slog.Info("Predictor: batch scored",
		"matches", len(matches),
		"scored", len(res.Scored),
		"failed", len(res.Failures),
		"recommendations", len(res.Recommendations()))
	return res
}

// scoreOne runs both modes for a single match.
func (e *Engine) scoreOne(ctx context.Context, m models.MatchRecord) (s Scored, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Predictor: panic while scoring match", "match_id", m.Key(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic while scoring %s: %v", m.Name(), r)
		}
	}()

	if m.HomeTeam == "" || m.AwayTeam == "" {
		return Scored{}, fmt.Errorf("match %q is missing a team name", m.Key())
	}

	v := features.Build(m, features.Options{HomeAdvantage: e.cfg.HomeAdvantage})
	s = Scored{Match: m, Prediction: e.Predict(m, v)}

	rec, err := e.Recommend(ctx, m, v)
	if err != nil {
		return Scored{}, err
	}
	s.Recommendation = rec
	return s, nil
}
