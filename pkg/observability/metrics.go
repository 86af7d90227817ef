package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/aretw0/rewind/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records simulator activity as Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	Steps           *prometheus.CounterVec
	RollbackCleared *prometheus.HistogramVec
	ReportChecks    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewind_steps_total",
				Help: "Total number of actions applied, by action type and outcome",
			},
			[]string{"action", "ok"},
		),
		RollbackCleared: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rewind_rollback_cleared_fields",
				Help:    "Number of state fields cleared per rollback",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
			[]string{"policy"},
		),
		ReportChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rewind_report_checks_total",
				Help: "Total number of GENERATE_REPORT readiness checks, by verdict",
			},
			[]string{"passed"},
		),
	}
	m.registry.MustRegister(m.Steps, m.RollbackCleared, m.ReportChecks)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			action := string(e.Action)
			if action == "" {
				action = "unknown"
			}
			m.Steps.WithLabelValues(action, strconv.FormatBool(e.OK)).Inc()
		},
		OnRollback: func(_ context.Context, e *domain.RollbackEvent) {
			m.RollbackCleared.WithLabelValues(e.Policy).Observe(float64(len(e.ClearedFields)))
		},
		OnReport: func(_ context.Context, e *domain.ReportEvent) {
			m.ReportChecks.WithLabelValues(strconv.FormatBool(e.Passed)).Inc()
		},
	}
}
