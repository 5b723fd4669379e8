package sources

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Vodeneev/footytips/internal/pkg/metrics"
	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/validation"
)

// Failure is a source that returned an error for the run.
type Failure struct {
	Source string
	Err    error
}

// Result holds one record list per source, in source order. A failed
// source contributes an empty list.
type Result struct {
	Records  [][]models.MatchRecord
	Failures []Failure
	Dropped  int
}

// Total is the number of records fetched across sources.
func (r Result) Total() int {
	n := 0
	for _, recs := range r.Records {
		n += len(recs)
	}
	return n
}

// Runner fetches every source in parallel and cleans what they return.
type Runner struct {
	sanitizer *validation.Sanitizer
	validator *validation.Validator
	metrics   *metrics.Registry
}

func NewRunner(m *metrics.Registry) *Runner {
	return &Runner{
		sanitizer: validation.NewSanitizer(),
		validator: validation.NewValidator(),
		metrics:   m,
	}
}

// Run never fails as a whole: source errors are collected in Result.Failures
// and invalid records are dropped and counted.
func (r *Runner) Run(ctx context.Context, srcs []Source, day time.Time) Result {
	res := Result{Records: make([][]models.MatchRecord, len(srcs))}
	if len(srcs) == 0 {
		return res
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i, src := range srcs {
		i, src := i, src
		wg.Add(1)
		go func() {
			defer wg.Done()

			start := time.Now()
			recs, err := src.Fetch(ctx, day)
			if err != nil {
				slog.Error("Source failed", "source", src.Name(), "error", err)
				mu.Lock()
				res.Failures = append(res.Failures, Failure{Source: src.Name(), Err: err})
				mu.Unlock()
				return
			}

			clean, dropped := r.clean(src.Name(), recs)
			res.Records[i] = clean
			r.metrics.ObserveSourceRecords(src.Name(), len(clean))
			slog.Info("Source fetched", "source", src.Name(), "records", len(clean), "dropped", dropped, "duration", time.Since(start))

			if dropped > 0 {
				mu.Lock()
				res.Dropped += dropped
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return res
}

func (r *Runner) clean(source string, recs []models.MatchRecord) ([]models.MatchRecord, int) {
	out := make([]models.MatchRecord, 0, len(recs))
	dropped := 0
	for i := range recs {
		rec := recs[i]
		if rec.Source == "" {
			rec.Source = source
		}
		r.sanitizer.SanitizeRecord(&rec)
		if err := r.validator.ValidateRecord(&rec); err != nil {
			slog.Warn("Dropping invalid record", "source", source, "match", rec.Name(), "error", err)
			dropped++
			continue
		}
		out = append(out, rec)
	}
	return out, dropped
}
