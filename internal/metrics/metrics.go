// Package metrics holds the audit engine's Prometheus collectors.
//
// All methods are safe to call on a nil *AuditMetrics so that components can
// be constructed in tests without a registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type AuditMetrics struct {
	cacheLookups  *prometheus.CounterVec
	verdicts      *prometheus.CounterVec
	scorerLatency *prometheus.HistogramVec
	persistTasks  *prometheus.CounterVec
	queueDepth    prometheus.Gauge
	propagations  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*AuditMetrics, error) {
	m := &AuditMetrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_cache_lookups_total",
				Help: "Audit result cache lookups by content type and outcome.",
			},
			[]string{"type", "result"},
		),
		verdicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_verdicts_total",
				Help: "Freshly computed verdicts by content type and status.",
			},
			[]string{"type", "status"},
		),
		scorerLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "audit_scorer_duration_seconds",
				Help:    "Latency of AI scorer calls.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"type"},
		),
		persistTasks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_persist_tasks_total",
				Help: "Background persistence tasks by outcome.",
			},
			[]string{"outcome"},
		),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "audit_persist_queue_depth",
			Help: "Tasks waiting in the persistence queue.",
		}),
		propagations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "audit_propagations_total",
				Help: "Verdict pushes to the study service by outcome.",
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.cacheLookups, m.verdicts, m.scorerLatency, m.persistTasks, m.queueDepth, m.propagations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *AuditMetrics) CacheLookup(contentType string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(contentType, result).Inc()
}

func (m *AuditMetrics) Verdict(contentType, status string) {
	if m == nil {
		return
	}
	m.verdicts.WithLabelValues(contentType, status).Inc()
}

func (m *AuditMetrics) ObserveScorer(contentType string, d time.Duration) {
	if m == nil {
		return
	}
	m.scorerLatency.WithLabelValues(contentType).Observe(d.Seconds())
}

// PersistTask counts a task outcome: "ok", "failed" or "dropped".
func (m *AuditMetrics) PersistTask(outcome string) {
	if m == nil {
		return
	}
	m.persistTasks.WithLabelValues(outcome).Inc()
}

func (m *AuditMetrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// Propagation counts a study push outcome: "ok" or "failed".
func (m *AuditMetrics) Propagation(outcome string) {
	if m == nil {
		return
	}
	m.propagations.WithLabelValues(outcome).Inc()
}
