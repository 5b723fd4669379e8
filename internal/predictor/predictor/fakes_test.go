package predictor

import (
	"context"
	"time"

	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
)

type fakeSignals struct {
	teams    map[string]models.TeamSignals
	h2h      []models.HeadToHeadRecord
	injuries map[string][]models.Injury
	err      error
	panicOn  string
}

func (f *fakeSignals) TeamSignals(_ context.Context, team string) (*models.TeamSignals, error) {
	if team == f.panicOn {
		panic("corrupt signals row")
	}
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.teams[team]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &s, nil
}

func (f *fakeSignals) HeadToHead(context.Context, string, string) ([]models.HeadToHeadRecord, error) {
	return f.h2h, nil
}

func (f *fakeSignals) Injuries(_ context.Context, team string) ([]models.Injury, error) {
	return f.injuries[team], nil
}

var testKickoff = time.Date(2026, 4, 18, 14, 0, 0, 0, time.UTC)

func fixedEngine(cfg Config, signals SignalSource) *Engine {
	e := New(cfg, signals)
	e.now = func() time.Time { return testKickoff.Add(-24 * time.Hour) }
	return e
}
