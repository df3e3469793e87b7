package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the autoflow runner.
// A nil *Metrics is safe to use; every recording method is a no-op.
type Metrics struct {
	config MetricsConfig

	// Pass metrics
	passesStarted   prometheus.Counter
	passesCompleted *prometheus.CounterVec
	passDuration    prometheus.Histogram
	activePasses    prometheus.Gauge

	// Rule metrics
	ruleExecutions *prometheus.CounterVec
	ruleDuration   *prometheus.HistogramVec

	// Scheduler metrics
	skippedFirings prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
// If cfg.Enabled is false the returned collector records nothing.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	namespace := cfg.Namespace
	buckets := cfg.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		passesStarted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "passes_started_total",
				Help:      "Total number of execution passes started",
			},
		),
		passesCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "passes_completed_total",
				Help:      "Total number of execution passes completed",
			},
			[]string{"result"},
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pass_duration_seconds",
				Help:      "Duration of a full execution pass in seconds",
				Buckets:   buckets,
			},
		),
		activePasses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_passes",
				Help:      "Number of execution passes currently in flight",
			},
		),
		ruleExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rule_executions_total",
				Help:      "Total number of rule executions",
			},
			[]string{"rule", "status"},
		),
		ruleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rule_duration_seconds",
				Help:      "Duration of individual rule executions in seconds",
				Buckets:   buckets,
			},
			[]string{"rule"},
		),
		skippedFirings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scheduler_skipped_firings_total",
				Help:      "Timer firings skipped because the previous pass was still running",
			},
		),
	}

	collectors := []prometheus.Collector{
		m.passesStarted, m.passesCompleted, m.passDuration, m.activePasses,
		m.ruleExecutions, m.ruleDuration, m.skippedFirings,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}

	return m, nil
}

// PassStarted records the start of an execution pass.
func (m *Metrics) PassStarted() {
	if m == nil {
		return
	}
	m.passesStarted.Inc()
	m.activePasses.Inc()
}

// PassCompleted records the completion of an execution pass.
func (m *Metrics) PassCompleted(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.passesCompleted.WithLabelValues(result).Inc()
	m.passDuration.Observe(duration.Seconds())
	m.activePasses.Dec()
}

// RuleExecuted records a single rule execution.
func (m *Metrics) RuleExecuted(rule string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.ruleExecutions.WithLabelValues(rule, status).Inc()
	m.ruleDuration.WithLabelValues(rule).Observe(duration.Seconds())
}

// FiringSkipped records a scheduler firing skipped due to overlap.
func (m *Metrics) FiringSkipped() {
	if m == nil {
		return
	}
	m.skippedFirings.Inc()
}

// Handler returns an HTTP handler that serves the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs the metrics HTTP endpoint until the context is cancelled.
func (m *Metrics) Serve(ctx context.Context) error {
	if m == nil {
		return nil
	}

	mux := http.NewServeMux()
	path := m.config.Path
	if path == "" {
		path = "/metrics"
	}
	mux.Handle(path, m.Handler())

	srv := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
