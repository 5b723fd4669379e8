// Package metrics holds the Prometheus collectors of the pipeline, the
// source clients and the HTTP API. A nil *Registry is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "footytips"

// Registry holds all collectors on a private prometheus.Registry.
type Registry struct {
	reg *prometheus.Registry

	SourceRequests *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec
	SourceRecords  *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec

	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	MatchesScored   prometheus.Counter
	MatchFailures   prometheus.Counter
	Recommendations *prometheus.CounterVec
	ValueBets       prometheus.Counter
	LastRunSuccess  prometheus.Gauge

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers every collector.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		SourceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_requests_total",
				Help:      "Upstream source requests by host and result",
			},
			[]string{"host", "result"},
		),
		SourceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_request_duration_seconds",
				Help:      "Upstream source request latency",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"host"},
		),
		SourceRecords: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_records_total",
				Help:      "Match records returned per source",
			},
			[]string{"source"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Source payload cache lookups by result",
			},
			[]string{"result"},
		),

		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Pipeline runs by status",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Pipeline run duration",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		MatchesScored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "matches_scored_total",
				Help:      "Matches scored by the engine",
			},
		),
		MatchFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "match_failures_total",
				Help:      "Matches that failed to score",
			},
		),
		Recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_total",
				Help:      "Recommendations emitted by category",
			},
			[]string{"category"},
		),
		ValueBets: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "value_bets_total",
				Help:      "Value bets found by the value mode",
			},
		),
		LastRunSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "API requests by route, method and status",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.SourceRequests, r.SourceDuration, r.SourceRecords, r.CacheLookups,
		r.Runs, r.RunDuration, r.MatchesScored, r.MatchFailures,
		r.Recommendations, r.ValueBets, r.LastRunSuccess,
		r.HTTPRequests, r.HTTPDuration,
	)
	return r
}

// Handler exposes the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer returns the underlying registry for tests.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) ObserveSourceRequest(host string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.SourceRequests.WithLabelValues(host, result).Inc()
	r.SourceDuration.WithLabelValues(host).Observe(elapsed.Seconds())
}

func (r *Registry) ObserveSourceRecords(source string, n int) {
	if r == nil {
		return
	}
	r.SourceRecords.WithLabelValues(source).Add(float64(n))
}

func (r *Registry) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	r.CacheLookups.WithLabelValues("miss").Inc()
}

// RunStats are the numbers a pipeline run reports.
type RunStats struct {
	Err             error
	Duration        time.Duration
	Scored          int
	Failed          int
	ValueBets       int
	Recommendations map[string]int // by category
}

func (r *Registry) ObserveRun(s RunStats) {
	if r == nil {
		return
	}
	if s.Err != nil {
		r.Runs.WithLabelValues("error").Inc()
	} else {
		r.Runs.WithLabelValues("ok").Inc()
		r.LastRunSuccess.SetToCurrentTime()
	}
	r.RunDuration.Observe(s.Duration.Seconds())
	r.MatchesScored.Add(float64(s.Scored))
	r.MatchFailures.Add(float64(s.Failed))
	r.ValueBets.Add(float64(s.ValueBets))
	for category, n := range s.Recommendations {
		r.Recommendations.WithLabelValues(category).Add(float64(n))
	}
}

func (r *Registry) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
