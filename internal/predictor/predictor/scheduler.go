package predictor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Vodeneev/footytips/internal/pkg/config"
)

// DayRunner is what the scheduler triggers.
type DayRunner interface {
	Run(ctx context.Context, day time.Time) (RunSummary, error)
}

// Scheduler runs the pipeline for the current day on a cron schedule.
type Scheduler struct {
	cron       *cron.Cron
	schedule   cron.Schedule
	runner     DayRunner
	loc        *time.Location
	timeout    time.Duration
	runOnStart bool
	now        func() time.Time

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler validates the cron expression and time zone. The schedule is
// a standard five-field expression evaluated in the configured zone.
func NewScheduler(cfg config.SchedulerConfig, runner DayRunner) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
	}

	schedule, err := cron.ParseStandard(cfg.Cron)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.Cron, err)
	}

	logger := cronLogger{}
	s := &Scheduler{
		runner:     runner,
		schedule:   schedule,
		loc:        loc,
		timeout:    cfg.RunTimeout,
		runOnStart: cfg.RunOnStart,
		now:        time.Now,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Minute
	}

	s.cron.Schedule(schedule, cron.FuncJob(s.tick))
	return s, nil
}

// Start begins the schedule. Runs are cancelled when ctx is done or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.cron.Start()
	slog.Info("Scheduler started", "next_run", s.Next())

	if s.runOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.tick()
		}()
	}
}

// Stop halts the schedule and waits for an active run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

// Next returns the time of the next scheduled run.
func (s *Scheduler) Next() time.Time {
	return s.schedule.Next(s.now().In(s.loc))
}

func (s *Scheduler) tick() {
	s.mu.Lock()
	parent := s.ctx
	s.mu.Unlock()
	if parent == nil {
		parent = context.Background()
	}
	if parent.Err() != nil {
		return
	}

	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	day := s.now().In(s.loc)
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	sum, err := s.runner.Run(ctx, day)
	switch {
	case errors.Is(err, ErrRunInProgress):
		slog.Warn("Scheduled run skipped: another run is active", "date", day.Format("2006-01-02"))
	case err != nil:
		slog.Error("Scheduled run failed", "date", day.Format("2006-01-02"), "error", err)
	default:
		slog.Info("Scheduled run done", "run_id", sum.RunID, "recommendations", sum.Recommendations)
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	slog.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
