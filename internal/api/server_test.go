package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/metrics"
	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
	"github.com/Vodeneev/footytips/internal/predictor/predictor"
)

var testNow = time.Date(2026, 4, 18, 9, 30, 0, 0, time.UTC)

type fakeStore struct {
	recs      map[string]models.Recommendation
	preds     []models.PredictionResult
	lastDay   time.Time
	lastLimit int
	filter    models.RecommendationFilter
	err       error
	pingErr   error
}

func (f *fakeStore) UpsertRecommendation(context.Context, *models.Recommendation) error { return nil }
func (f *fakeStore) DeleteRecommendation(context.Context, string) error { return nil }

func (f *fakeStore) GetRecommendation(_ context.Context, matchID string) (*models.Recommendation, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.recs[matchID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &r, nil
}

func (f *fakeStore) ListRecommendations(_ context.Context, filter models.RecommendationFilter) ([]models.Recommendation, error) {
	f.filter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Recommendation, 0, len(f.recs))
	for _, r := range f.recs {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) UpsertPrediction(context.Context, *models.PredictionResult) error { return nil }

func (f *fakeStore) ListPredictions(_ context.Context, day time.Time, limit int) ([]models.PredictionResult, error) {
	f.lastDay, f.lastLimit = day, limit
	if f.err != nil {
		return nil, f.err
	}
	return f.preds, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type fakePipeline struct {
	day   time.Time
	sum   predictor.RunSummary
	err   error
	last  *predictor.RunSummary
	delay time.Duration

	ctxErr   error
	deadline time.Time
}

func (p *fakePipeline) Run(ctx context.Context, day time.Time) (predictor.RunSummary, error) {
	p.day = day
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	p.ctxErr = ctx.Err()
	p.deadline, _ = ctx.Deadline()
	return p.sum, p.err
}

func (p *fakePipeline) LastRun() (predictor.RunSummary, bool) {
	if p.last == nil {
		return predictor.RunSummary{}, false
	}
	return *p.last, true
}

func newTestServer(store *fakeStore, pipeline *fakePipeline) (*Server, *metrics.Registry) {
	reg := metrics.New()
	cfg := config.APIConfig{
		CORSOrigins:    []string{"*"},
		RateLimit:      1000,
		Burst:          1000,
		RequestTimeout: 5 * time.Second,
		RunTimeout:     10 * time.Minute,
	}
	var p Pipeline
	if pipeline != nil {
		p = pipeline
	}
	s := NewServer(cfg, store, p, reg, "footytips-test")
	s.now = func() time.Time { return testNow }
	return s, reg
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func arsenalRec() models.Recommendation {
	return models.Recommendation{
		ID:              "rec-1",
		MatchID:         "arsenal_chelsea_20260418",
		HomeTeam:        "Arsenal",
		AwayTeam:        "Chelsea",
		RecommendedSide: "Arsenal",
		BetType:         models.BetHomeWin,
		Confidence:      71,
		Category:        models.CategoryValue,
	}
}

func TestPingAndHealth(t *testing.T) {
	store := &fakeStore{}
	pipeline := &fakePipeline{last: &predictor.RunSummary{RunID: "r-42"}}
	s, _ := newTestServer(store, pipeline)
	h := s.Router()

	rec := do(t, h, http.MethodGet, "/ping")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong\n", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "r-42", body["last_run"].(map[string]interface{})["run_id"])

	store.pingErr = errors.New("connection reset")
	rec = do(t, h, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestListPredictions(t *testing.T) {
	store := &fakeStore{preds: []models.PredictionResult{{MatchID: "m1"}, {MatchID: "m2"}}}
	s, _ := newTestServer(store, nil)
	h := s.Router()

	rec := do(t, h, http.MethodGet, "/api/v1/predictions?date=2026-04-19&limit=1000")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Predictions []models.PredictionResult `json:"predictions"`
		Meta        listMeta                  `json:"meta"`
	}
	decode(t, rec, &body)
	assert.Len(t, body.Predictions, 2)
	assert.Equal(t, 2, body.Meta.Count)
	assert.Equal(t, "2026-04-19", body.Meta.Date)
	assert.Equal(t, time.Date(2026, 4, 19, 0, 0, 0, 0, time.UTC), store.lastDay)
	assert.Equal(t, maxLimit, store.lastLimit)
}

func TestListPredictions_Defaults(t *testing.T) {
	store := &fakeStore{}
	s, _ := newTestServer(store, nil)

	rec := do(t, s.Router(), http.MethodGet, "/api/v1/predictions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 4, 18, 0, 0, 0, 0, time.UTC), store.lastDay)
	assert.Equal(t, defaultLimit, store.lastLimit)
	assert.Contains(t, rec.Body.String(), `"predictions":[]`)
}

func TestBadQueryParams(t *testing.T) {
	s, _ := newTestServer(&fakeStore{}, nil)
	h := s.Router()

	for _, target := range []string{
		"/api/v1/predictions?date=18-04-2026",
		"/api/v1/predictions?limit=0",
		"/api/v1/predictions?limit=ten",
		"/api/v1/recommendations?category=LOCK",
		"/api/v1/recommendations?min_confidence=101",
		"/api/v1/recommendations?min_confidence=-1",
		"/api/v1/recommendations?date=tomorrow",
	} {
		t.Run(target, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestListRecommendations_Filter(t *testing.T) {
	store := &fakeStore{recs: map[string]models.Recommendation{"arsenal_chelsea_20260418": arsenalRec()}}
	s, _ := newTestServer(store, nil)

	rec := do(t, s.Router(), http.MethodGet, "/api/v1/recommendations?category=value_bet&min_confidence=70&limit=5&date=2026-04-18")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, models.CategoryValue, store.filter.Category)
	assert.Equal(t, 70, store.filter.MinConfidence)
	assert.Equal(t, 5, store.filter.Limit)
	assert.Equal(t, time.Date(2026, 4, 18, 0, 0, 0, 0, time.UTC), store.filter.Date)

	var body struct {
		Recommendations []models.Recommendation `json:"recommendations"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Recommendations, 1)
	assert.Equal(t, "Arsenal", body.Recommendations[0].RecommendedSide)
}

func TestGetRecommendation(t *testing.T) {
	store := &fakeStore{recs: map[string]models.Recommendation{"arsenal_chelsea_20260418": arsenalRec()}}
	s, _ := newTestServer(store, nil)
	h := s.Router()

	rec := do(t, h, http.MethodGet, "/api/v1/recommendations/arsenal_chelsea_20260418")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Recommendation
	decode(t, rec, &got)
	assert.Equal(t, 71, got.Confidence)

	rec = do(t, h, http.MethodGet, "/api/v1/recommendations/unknown")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	store.err = errors.New("pq: relation does not exist")
	rec = do(t, h, http.MethodGet, "/api/v1/recommendations/arsenal_chelsea_20260418")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestTriggerRun(t *testing.T) {
	pipeline := &fakePipeline{sum: predictor.RunSummary{RunID: "r-1", Scored: 12}}
	s, _ := newTestServer(&fakeStore{}, pipeline)
	h := s.Router()

	rec := do(t, h, http.MethodPost, "/api/v1/runs?date=2026-04-20")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC), pipeline.day)
	var sum predictor.RunSummary
	decode(t, rec, &sum)
	assert.Equal(t, "r-1", sum.RunID)
	assert.Equal(t, 12, sum.Scored)

	rec = do(t, h, http.MethodGet, "/api/v1/runs")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestTriggerRun_OutlivesRequestTimeout(t *testing.T) {
	pipeline := &fakePipeline{sum: predictor.RunSummary{RunID: "r-slow"}, delay: 60 * time.Millisecond}
	s, _ := newTestServer(&fakeStore{}, pipeline)
	s.cfg.RequestTimeout = 10 * time.Millisecond
	s.cfg.RunTimeout = time.Minute
	h := s.Router()

	start := time.Now()
	rec := do(t, h, http.MethodPost, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, pipeline.ctxErr)
	require.False(t, pipeline.deadline.IsZero())
	assert.WithinDuration(t, start.Add(time.Minute), pipeline.deadline, 5*time.Second)

	// A client that goes away does not cancel the run.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil).WithContext(ctx)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NoError(t, pipeline.ctxErr)
}

func TestTriggerRun_Errors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{predictor.ErrRunInProgress, http.StatusConflict},
		{predictor.ErrNoData, http.StatusBadGateway},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			s, _ := newTestServer(&fakeStore{}, &fakePipeline{err: tt.err})
			rec := do(t, s.Router(), http.MethodPost, "/api/v1/runs")
			assert.Equal(t, tt.want, rec.Code)
			assert.NotContains(t, rec.Body.String(), "disk full")
		})
	}
}

func TestRateLimit(t *testing.T) {
	store := &fakeStore{}
	reg := metrics.New()
	s := NewServer(config.APIConfig{CORSOrigins: []string{"*"}, RateLimit: 1, Burst: 2}, store, nil, reg, "test")
	h := s.Router()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, h, http.MethodGet, "/api/v1/predictions").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Health checks are not limited.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/ping").Code)
}

func TestIPLimiter_PerClient(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := testNow
	l.now = func() time.Time { return now }

	assert.True(t, l.allow("10.0.0.1"))
	assert.False(t, l.allow("10.0.0.1"))
	assert.True(t, l.allow("10.0.0.2"))

	now = now.Add(time.Second)
	assert.True(t, l.allow("10.0.0.1"))

	now = now.Add(limiterIdleTTL + time.Minute)
	l.allow("10.0.0.3")
	assert.Len(t, l.visitors, 1)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(&fakeStore{}, nil)
	h := s.Router()

	do(t, h, http.MethodGet, "/api/v1/predictions")
	rec := do(t, h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `route="/api/v1/predictions"`))
}
