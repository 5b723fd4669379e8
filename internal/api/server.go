// Package api serves stored predictions and recommendations over HTTP and
// lets operators trigger a pipeline run.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Vodeneev/footytips/internal/pkg/config"
	"github.com/Vodeneev/footytips/internal/pkg/metrics"
	"github.com/Vodeneev/footytips/internal/pkg/storage"
	"github.com/Vodeneev/footytips/internal/predictor/predictor"
)

// Store is what the read endpoints need from storage.
type Store interface {
	storage.RecommendationStore
	Ping(ctx context.Context) error
}

// Pipeline runs and reports pipeline runs.
type Pipeline interface {
	Run(ctx context.Context, day time.Time) (predictor.RunSummary, error)
	LastRun() (predictor.RunSummary, bool)
}

// Server is the HTTP front of the service.
type Server struct {
	cfg      config.APIConfig
	store    Store
	pipeline Pipeline
	metrics  *metrics.Registry
	service  string
	now      func() time.Time
}

func NewServer(cfg config.APIConfig, store Store, pipeline Pipeline, m *metrics.Registry, service string) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		pipeline: pipeline,
		metrics:  m,
		service:  service,
		now:      time.Now,
	}
}

// Router builds the route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.observe)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/ping", handlePing)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(newIPLimiter(s.cfg.RateLimit, s.cfg.Burst).middleware)

		r.Group(func(r chi.Router) {
			if s.cfg.RequestTimeout > 0 {
				r.Use(chimiddleware.Timeout(s.cfg.RequestTimeout))
			}
			r.Get("/predictions", s.handlePredictions)
			r.Get("/recommendations", s.handleRecommendations)
			r.Get("/recommendations/{matchID}", s.handleRecommendation)
		})

		// Runs are bounded by RunTimeout in the handler instead.
		r.Post("/runs", s.handleRun)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "service", s.service, "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// observe logs each request and records it in the HTTP metrics under its
// route pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		s.metrics.ObserveHTTP(route, r.Method, status, elapsed)

		if route == "/metrics" || route == "/ping" {
			return
		}
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", elapsed,
			"request_id", chimiddleware.GetReqID(r.Context()))
	})
}
