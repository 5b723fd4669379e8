// Package predictor scores reconciled matches and turns the scores into
// betting recommendations.
package predictor

import (
	"context"
	"time"

	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// SignalSource provides the persisted inputs of the weighted-factor mode.
// Implementations return storage.ErrNotFound for unknown teams.
type SignalSource interface {
	TeamSignals(ctx context.Context, team string) (*models.TeamSignals, error)
	HeadToHead(ctx context.Context, home, away string) ([]models.HeadToHeadRecord, error)
	Injuries(ctx context.Context, team string) ([]models.Injury, error)
}

// Engine runs both scoring modes with a fixed Config.
type Engine struct {
	cfg     Config
	signals SignalSource
	now     func() time.Time
}

// New creates an engine. signals may be nil, in which case the weighted mode
// derives its inputs from the match record alone.
func New(cfg Config, signals SignalSource) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{
		cfg:     cfg,
		signals: signals,
		now:     time.Now,
	}
}

// Config returns the engine thresholds.
func (e *Engine) Config() Config {
	return e.cfg
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
