// Package metrics exposes Prometheus counters for scrape runs.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Navigation outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeTimeout = "timeout"
)

var (
	Navigations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_navigations_total",
			Help: "Total number of page navigations by engine and outcome",
		},
		[]string{"engine", "outcome"},
	)

	NavigationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadscout_navigation_duration_seconds",
			Help:    "Duration of page navigations in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"engine"},
	)

	Leads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_leads_total",
			Help: "Total number of raw leads extracted, before cleaning",
		},
		[]string{"source"},
	)

	Challenges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_challenges_total",
			Help: "Anti-bot challenges detected on result pages",
		},
		[]string{"engine", "vendor"},
	)

	ElementFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_element_failures_total",
			Help: "Result elements skipped because extraction failed",
		},
		[]string{"engine"},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_proxy_failures_total",
			Help: "Total number of proxy failures during fetches",
		},
		[]string{"proxy"},
	)
)

// RecordNavigation counts one navigation attempt for engine.
func RecordNavigation(engine string, d time.Duration, err error) {
	outcome := OutcomeOK
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		outcome = OutcomeTimeout
	case err != nil:
		outcome = OutcomeError
	}
	Navigations.WithLabelValues(engine, outcome).Inc()
	NavigationDuration.WithLabelValues(engine).Observe(d.Seconds())
}

// RecordLead counts one raw lead for source.
func RecordLead(source string) {
	Leads.WithLabelValues(source).Inc()
}

// RecordChallenge counts a detected challenge. An empty vendor is reported
// as "unknown".
func RecordChallenge(engine, vendor string) {
	if vendor == "" {
		vendor = "unknown"
	}
	Challenges.WithLabelValues(engine, vendor).Inc()
}

// RecordElementFailure counts one skipped result element.
func RecordElementFailure(engine string) {
	ElementFailures.WithLabelValues(engine).Inc()
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics.
func Start(port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
