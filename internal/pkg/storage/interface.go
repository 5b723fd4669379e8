package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Vodeneev/footytips/internal/pkg/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

// SignalStore holds the per-team inputs of the weighted-factor mode
type SignalStore interface {
	// TeamSignals returns ErrNotFound for an unknown team
	TeamSignals(ctx context.Context, team string) (*models.TeamSignals, error)

	// UpsertTeamSignals replaces the stored signals of a team
	UpsertTeamSignals(ctx context.Context, s models.TeamSignals) error

	// HeadToHead returns meetings between the two teams in either venue, newest first
	HeadToHead(ctx context.Context, home, away string) ([]models.HeadToHeadRecord, error)

	// AddHeadToHead stores meetings, ignoring ones already known
	AddHeadToHead(ctx context.Context, records []models.HeadToHeadRecord) error

	// Injuries returns the current injury list of a team
	Injuries(ctx context.Context, team string) ([]models.Injury, error)

	// ReplaceInjuries swaps the injury list of a team for a new one
	ReplaceInjuries(ctx context.Context, team string, injuries []models.Injury) error
}

// RecommendationStore persists engine output. Both record kinds are
// upserted by match ID so a later run supersedes an earlier one.
type RecommendationStore interface {
	UpsertRecommendation(ctx context.Context, rec *models.Recommendation) error

	// DeleteRecommendation drops a match's recommendation; a missing row is not an error
	DeleteRecommendation(ctx context.Context, matchID string) error

	// GetRecommendation returns ErrNotFound when the match has no recommendation
	GetRecommendation(ctx context.Context, matchID string) (*models.Recommendation, error)

	ListRecommendations(ctx context.Context, filter models.RecommendationFilter) ([]models.Recommendation, error)

	UpsertPrediction(ctx context.Context, p *models.PredictionResult) error

	// ListPredictions returns predictions for matches kicking off on the given UTC day
	ListPredictions(ctx context.Context, day time.Time, limit int) ([]models.PredictionResult, error)
}

// Store is the full relational store.
type Store interface {
	SignalStore
	RecommendationStore

	Ping(ctx context.Context) error
	Close() error
}

// Cache keeps raw source payloads for a limited time.
type Cache interface {
	// Get reports ok=false on a miss
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte) error
}
