package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Vodeneev/footytips/internal/pkg/models"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
	"github.com/Vodeneev/footytips/internal/predictor/predictor"
)

const (
	defaultLimit = 100
	maxLimit     = 500
	dateLayout   = "2006-01-02"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type listMeta struct {
	Count    int    `json:"count"`
	Duration string `json:"duration"`
	Date     string `json:"date,omitempty"`
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong\n"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
		return
	}

	body := map[string]interface{}{
		"status":    "healthy",
		"service":   s.service,
		"timestamp": s.now().UTC(),
	}
	if s.pipeline != nil {
		if last, ok := s.pipeline.LastRun(); ok {
			body["last_run"] = last
		}
	}
	respondJSON(w, http.StatusOK, body)
}

// GET /api/v1/predictions?date=YYYY-MM-DD&limit=N
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	day, err := parseDate(r.URL.Query().Get("date"), s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	preds, err := s.store.ListPredictions(r.Context(), day, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load predictions", err)
		return
	}
	if preds == nil {
		preds = []models.PredictionResult{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": preds,
		"meta": listMeta{
			Count:    len(preds),
			Duration: time.Since(start).String(),
			Date:     day.Format(dateLayout),
		},
	})
}

// GET /api/v1/recommendations?date=&category=&min_confidence=&limit=
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	var filter models.RecommendationFilter
	if raw := q.Get("date"); raw != "" {
		day, err := parseDate(raw, s.now())
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		filter.Date = day
	}
	if raw := strings.ToUpper(strings.TrimSpace(q.Get("category"))); raw != "" {
		switch c := models.Category(raw); c {
		case models.CategorySafe, models.CategoryValue, models.CategoryRisky:
			filter.Category = c
		default:
			respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown category %q", raw), nil)
			return
		}
	}
	if raw := q.Get("min_confidence"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 100 {
			respondError(w, http.StatusBadRequest, "min_confidence must be an integer between 0 and 100", nil)
			return
		}
		filter.MinConfidence = n
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	filter.Limit = limit

	recs, err := s.store.ListRecommendations(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load recommendations", err)
		return
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}

	meta := listMeta{Count: len(recs), Duration: time.Since(start).String()}
	if !filter.Date.IsZero() {
		meta.Date = filter.Date.Format(dateLayout)
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
		"meta":            meta,
	})
}

// GET /api/v1/recommendations/{matchID}
func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchID")
	if matchID == "" {
		respondError(w, http.StatusBadRequest, "match id is required", nil)
		return
	}

	rec, err := s.store.GetRecommendation(r.Context(), matchID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "recommendation not found", nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to load recommendation", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// POST /api/v1/runs?date=YYYY-MM-DD
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.pipeline == nil {
		respondError(w, http.StatusServiceUnavailable, "pipeline is not configured", nil)
		return
	}
	day, err := parseDate(r.URL.Query().Get("date"), s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	// Detached from the request: a dropped client does not abort the run.
	ctx := context.WithoutCancel(r.Context())
	if s.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RunTimeout)
		defer cancel()
	}
	sum, err := s.pipeline.Run(ctx, day)
	switch {
	case errors.Is(err, predictor.ErrRunInProgress):
		respondError(w, http.StatusConflict, "a run is already in progress", nil)
		return
	case errors.Is(err, predictor.ErrNoData):
		respondError(w, http.StatusBadGateway, "no source returned data", err)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "run failed", err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

// parseDate reads a YYYY-MM-DD day; empty means the current UTC day.
func parseDate(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		n := now.UTC()
		return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return day, nil
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer")
	}
	return min(n, maxLimit), nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// respondError logs err but never returns it to the client.
func respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		slog.Error("Request failed", "status", status, "message", message, "error", err)
	}
	respondJSON(w, status, errorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
