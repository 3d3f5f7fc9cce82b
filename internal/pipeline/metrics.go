package pipeline

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/finrag-metrics/internal/contracts"
)

// Metrics holds the Prometheus collectors of the analytical layer run.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EntitiesProcessed *prometheus.CounterVec
	RecordsEmitted    *prometheus.CounterVec
	SkippedRecords    prometheus.Counter
	Merges            *prometheus.CounterVec
	MissingPrev       prometheus.Gauge
	MissingNew        prometheus.Gauge
	RunDuration       prometheus.Histogram
}

// NewMetrics registers every collector on a dedicated registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EntitiesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrag_entities_processed_total",
				Help: "Entities processed by the collector, by status",
			},
			[]string{"status"},
		),

		RecordsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrag_records_emitted_total",
				Help: "Canonical records produced, by metric type",
			},
			[]string{"metric_type"},
		),

		SkippedRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "finrag_skipped_records_total",
				Help: "Facts skipped for missing or non-finite values",
			},
		),

		Merges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "finrag_merges_total",
				Help: "Merge controller decisions, by outcome",
			},
			[]string{"outcome"},
		),

		MissingPrev: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "finrag_missing_derived_prev",
				Help: "Missing derived metrics in the persisted dataset at the last run",
			},
		),

		MissingNew: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "finrag_missing_derived_new",
				Help: "Missing derived metrics in the new layer at the last run",
			},
		),

		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "finrag_run_duration_seconds",
				Help:    "Wall time of a full analytical layer run",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
	}

	m.registry.MustRegister(
		m.EntitiesProcessed,
		m.RecordsEmitted,
		m.SkippedRecords,
		m.Merges,
		m.MissingPrev,
		m.MissingNew,
		m.RunDuration,
	)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeEntity(r EntityResult) {
	if m == nil {
		return
	}
	status := "ok"
	if r.Err != nil {
		status = "failed"
	}
	m.EntitiesProcessed.WithLabelValues(status).Inc()
	m.SkippedRecords.Add(float64(len(r.Skipped)))
	for _, rec := range r.Records {
		m.RecordsEmitted.WithLabelValues(string(rec.MetricType)).Inc()
	}
}

func (m *Metrics) observeRun(s *contracts.RunSummary, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Merges.WithLabelValues(string(s.Outcome)).Inc()
	if s.MissingPrev != nil {
		m.MissingPrev.Set(float64(*s.MissingPrev))
	}
	if s.MissingNew != nil {
		m.MissingNew.Set(float64(*s.MissingNew))
	}
	m.RunDuration.Observe(elapsed.Seconds())
}
