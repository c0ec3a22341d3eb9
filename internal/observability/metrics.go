package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// field-data pipeline.
type Metrics struct {
	RowsIngested  prometheus.Counter
	RunsSucceeded prometheus.Counter
	RunsFailed    prometheus.Counter

	// StageDuration is labeled by stage: ingest, rename, correct, enrich.
	StageDuration *prometheus.HistogramVec

	// UnmatchedRows counts survey rows with no weather station entry.
	UnmatchedRows prometheus.Counter

	PipelineRunning  prometheus.Gauge
	LastRunTimestamp prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsIngested,
		m.RunsSucceeded,
		m.RunsFailed,
		m.StageDuration,
		m.UnmatchedRows,
		m.PipelineRunning,
		m.LastRunTimestamp,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_etl",
			Name:      "rows_ingested_total",
			Help:      "Total rows read from the SQL source.",
		}),
		RunsSucceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_etl",
			Name:      "runs_succeeded_total",
			Help:      "Total pipeline runs that completed all four stages.",
		}),
		RunsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_etl",
			Name:      "runs_failed_total",
			Help:      "Total pipeline runs aborted by a stage failure.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "field_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		UnmatchedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "field_etl",
			Name:      "unmatched_rows_total",
			Help:      "Rows left without a weather station after enrichment.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "field_etl",
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is in progress.",
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "field_etl",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}
