package predictor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vodeneev/footytips/internal/pkg/metrics"
	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/reconcile"
	"github.com/Vodeneev/footytips/internal/pkg/sources"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
)

var (
	// ErrRunInProgress is returned by Run while another run is active.
	ErrRunInProgress = errors.New("predictor: run already in progress")

	// ErrNoData is returned when every source failed and nothing was fetched.
	ErrNoData = errors.New("predictor: no source returned data")
)

// Store is the part of the relational store the pipeline writes to.
type Store interface {
	storage.SignalStore
	storage.RecommendationStore
}

// Publisher ships the output of a run downstream.
type Publisher interface {
	PublishRun(ctx context.Context, runID string, day time.Time, recs []models.Recommendation, preds []models.PredictionResult) error
}

// Notifier alerts on fresh recommendations.
type Notifier interface {
	NotifyRecommendations(ctx context.Context, recs []models.Recommendation) error
}

// RunSummary describes one finished pipeline run.
type RunSummary struct {
	RunID           string         `json:"run_id"`
	Date            string         `json:"date"`
	StartedAt       time.Time      `json:"started_at"`
	Duration        time.Duration  `json:"duration"`
	Fetched         int            `json:"fetched"`
	Dropped         int            `json:"dropped"`
	Reconciled      int            `json:"reconciled"`
	Scored          int            `json:"scored"`
	ValueBets       int            `json:"value_bets"`
	Recommendations int            `json:"recommendations"`
	Categories      map[string]int `json:"categories,omitempty"`
	SourceFailures  []string       `json:"source_failures,omitempty"`
	MatchFailures   []string       `json:"match_failures,omitempty"`

	// Output of the run, for callers that render it directly.
	Recs  []models.Recommendation   `json:"-"`
	Preds []models.PredictionResult `json:"-"`
}

// Service runs the whole daily pipeline: fetch, reconcile, score, persist,
// publish and notify.
type Service struct {
	engine    *Engine
	store     Store
	srcs      []sources.Source
	runner    *sources.Runner
	publisher Publisher
	notifier  Notifier
	metrics   *metrics.Registry

	mu      sync.Mutex
	lastMu  sync.RWMutex
	last    *RunSummary
	running bool
}

type ServiceOption func(*Service)

func WithPublisher(p Publisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Registry) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService wires the pipeline. The engine should read its signals from the
// same store so that signals persisted by a run are visible to scoring.
func NewService(engine *Engine, store Store, srcs []sources.Source, opts ...ServiceOption) *Service {
	s := &Service{
		engine: engine,
		store:  store,
		srcs:   srcs,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.runner = sources.NewRunner(s.metrics)
	return s
}

// Running reports whether a run is active.
func (s *Service) Running() bool {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	return s.running
}

// LastRun returns the summary of the most recent successful run.
func (s *Service) LastRun() (RunSummary, bool) {
	s.lastMu.RLock()
	defer s.lastMu.RUnlock()
	if s.last == nil {
		return RunSummary{}, false
	}
	return *s.last, true
}

// Run executes the pipeline for the matches of one UTC day. Only one run may
// be active at a time.
func (s *Service) Run(ctx context.Context, day time.Time) (RunSummary, error) {
	if !s.mu.TryLock() {
		return RunSummary{}, ErrRunInProgress
	}
	defer s.mu.Unlock()
	s.setRunning(true)
	defer s.setRunning(false)

	day = day.UTC().Truncate(24 * time.Hour)
	sum := RunSummary{
		RunID:     uuid.NewString(),
		Date:      day.Format("2006-01-02"),
		StartedAt: time.Now().UTC(),
	}
	log := slog.With("run_id", sum.RunID, "date", sum.Date)
	log.Info("Pipeline run started", "sources", len(s.srcs))

	err := s.run(ctx, log, day, &sum)
	sum.Duration = time.Since(sum.StartedAt)

	s.metrics.ObserveRun(metrics.RunStats{
		Err:             err,
		Duration:        sum.Duration,
		Scored:          sum.Scored,
		Failed:          len(sum.MatchFailures),
		ValueBets:       sum.ValueBets,
		Recommendations: sum.Categories,
	})
	if err != nil {
		log.Error("Pipeline run failed", "error", err, "duration", sum.Duration)
		return sum, err
	}

	s.lastMu.Lock()
	last := sum
	s.last = &last
	s.lastMu.Unlock()

	log.Info("Pipeline run finished",
		"fetched", sum.Fetched,
		"reconciled", sum.Reconciled,
		"scored", sum.Scored,
		"recommendations", sum.Recommendations,
		"value_bets", sum.ValueBets,
		"duration", sum.Duration)
	return sum, nil
}

func (s *Service) run(ctx context.Context, log *slog.Logger, day time.Time, sum *RunSummary) error {
	fetched := s.runner.Run(ctx, s.srcs, day)
	sum.Fetched = fetched.Total()
	sum.Dropped = fetched.Dropped
	for _, f := range fetched.Failures {
		sum.SourceFailures = append(sum.SourceFailures, f.Source)
	}
	if sum.Fetched == 0 && len(fetched.Failures) > 0 && len(fetched.Failures) == len(s.srcs) {
		errs := make([]error, 0, len(fetched.Failures))
		for _, f := range fetched.Failures {
			errs = append(errs, fmt.Errorf("%s: %w", f.Source, f.Err))
		}
		return fmt.Errorf("%w: %w", ErrNoData, errors.Join(errs...))
	}

	matches := reconcile.All(fetched.Records...)
	sum.Reconciled = len(matches)

	if err := s.persistSignals(ctx, matches); err != nil {
		return err
	}

	batch := s.engine.RunBatch(ctx, matches)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	sum.Scored = len(batch.Scored)
	for _, f := range batch.Failures {
		sum.MatchFailures = append(sum.MatchFailures, f.MatchID)
	}

	recs := batch.Recommendations()
	preds := batch.Predictions()
	sum.Recs, sum.Preds = recs, preds
	sum.Recommendations = len(recs)
	sum.Categories = make(map[string]int)
	for _, r := range recs {
		sum.Categories[string(r.Category)]++
	}

	for i := range preds {
		if preds[i].ValueBet != nil {
			sum.ValueBets++
		}
		if err := s.store.UpsertPrediction(ctx, &preds[i]); err != nil {
			return fmt.Errorf("failed to save prediction %s: %w", preds[i].MatchID, err)
		}
	}
	for i := range recs {
		if err := s.store.UpsertRecommendation(ctx, &recs[i]); err != nil {
			return fmt.Errorf("failed to save recommendation %s: %w", recs[i].MatchID, err)
		}
	}
	// A match scored again without a recommendation loses its earlier one.
	for _, sc := range batch.Scored {
		if sc.Recommendation != nil {
			continue
		}
		if err := s.store.DeleteRecommendation(ctx, sc.Prediction.MatchID); err != nil {
			return fmt.Errorf("failed to clear recommendation %s: %w", sc.Prediction.MatchID, err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRun(ctx, sum.RunID, day, recs, preds); err != nil {
			log.Warn("Failed to publish run", "error", err)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyRecommendations(ctx, recs); err != nil {
			log.Warn("Failed to send alerts", "error", err)
		}
	}
	return nil
}

// persistSignals stores the team inputs carried by the reconciled records so
// the weighted mode can read them back. Teams without form are left alone so
// an odds-only record cannot overwrite good signals with neutral ones.
func (s *Service) persistSignals(ctx context.Context, matches []models.MatchRecord) error {
	for _, m := range matches {
		home, away := SignalsFromRecord(m)
		if len(m.HomeForm) > 0 {
			if err := s.store.UpsertTeamSignals(ctx, home); err != nil {
				return fmt.Errorf("failed to save signals for %s: %w", m.HomeTeam, err)
			}
		}
		if len(m.AwayForm) > 0 {
			if err := s.store.UpsertTeamSignals(ctx, away); err != nil {
				return fmt.Errorf("failed to save signals for %s: %w", m.AwayTeam, err)
			}
		}
		if len(m.HeadToHead) > 0 {
			if err := s.store.AddHeadToHead(ctx, m.HeadToHead); err != nil {
				return fmt.Errorf("failed to save head-to-head for %s: %w", m.Name(), err)
			}
		}
		if len(m.Injuries) > 0 {
			homeInj, awayInj := splitInjuries(m)
			if err := s.store.ReplaceInjuries(ctx, m.HomeTeam, homeInj); err != nil {
				return fmt.Errorf("failed to save injuries for %s: %w", m.HomeTeam, err)
			}
			if err := s.store.ReplaceInjuries(ctx, m.AwayTeam, awayInj); err != nil {
				return fmt.Errorf("failed to save injuries for %s: %w", m.AwayTeam, err)
			}
		}
	}
	return nil
}

func (s *Service) setRunning(v bool) {
	s.lastMu.Lock()
	s.running = v
	s.lastMu.Unlock()
}
