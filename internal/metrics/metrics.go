// Package metrics exposes Prometheus collectors for grid mutations and
// layout passes.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spagrid"

// Metrics implements schedule.Metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	applied       *prometheus.CounterVec
	queued        *prometheus.CounterVec
	settled       *prometheus.CounterVec
	persistTime   *prometheus.HistogramVec
	layoutTime    prometheus.Histogram
	layoutEntries prometheus.Gauge
}

// New creates and registers every collector, plus the Go runtime ones.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_applied_total",
			Help:      "Optimistic mutations applied to the store.",
		}, []string{"kind"}),
		queued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_queued_total",
			Help:      "Mutations queued behind one already in flight for the same appointment.",
		}, []string{"kind"}),
		settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mutations_settled_total",
			Help:      "Mutations acknowledged by the repository, by result.",
		}, []string{"kind", "result"}),
		persistTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Time spent in the repository per mutation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		layoutTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "layout_duration_seconds",
			Help:      "Time spent computing one employee's column layout.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		layoutEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_appointments",
			Help:      "Appointments in the most recent layout pass.",
		}),
	}

	m.registry.MustRegister(
		m.applied, m.queued, m.settled, m.persistTime, m.layoutTime, m.layoutEntries,
		collectors.NewGoCollector(),
	)
	return m
}

// MutationApplied counts an optimistic change.
func (m *Metrics) MutationApplied(kind string) {
	m.applied.WithLabelValues(kind).Inc()
}

// MutationQueued counts a change waiting behind another.
func (m *Metrics) MutationQueued(kind string) {
	m.queued.WithLabelValues(kind).Inc()
}

// MutationSettled records a repository round trip.
func (m *Metrics) MutationSettled(kind string, ok bool, elapsed time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.settled.WithLabelValues(kind, result).Inc()
	m.persistTime.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// LayoutComputed records one layout pass.
func (m *Metrics) LayoutComputed(appointments int, elapsed time.Duration) {
	m.layoutTime.Observe(elapsed.Seconds())
	m.layoutEntries.Set(float64(appointments))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Router serves Handler at path and a liveness probe at /healthz.
func (m *Metrics) Router(path string) *mux.Router {
	r := mux.NewRouter()
	r.Handle(path, m.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	return r
}

// Serve exposes Router on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr, path string, logger *slog.Logger) error {
	srv := &http.Server{Addr: addr, Handler: m.Router(path), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", "addr", addr, "path", path)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}
