package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// verification batch runner.
type Metrics struct {
	CasesCompleted prometheus.Counter
	CasesFailed    prometheus.Counter
	BatchRunning   prometheus.Gauge

	// Per-case timings.
	SolverRunDuration  prometheus.Histogram
	ExtractionDuration prometheus.Histogram

	// Grid generation metrics.
	GridsWritten *prometheus.CounterVec // labels: format={net,structured}
}

// NewMetrics creates and registers all batch metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		CasesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tidal_verify",
			Name:      "cases_completed_total",
			Help:      "Total simulation cases run to completion.",
		}),
		CasesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tidal_verify",
			Name:      "cases_failed_total",
			Help:      "Total simulation cases that ended in error.",
		}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tidal_verify",
			Name:      "batch_running",
			Help:      "1 while a case batch is active, 0 otherwise.",
		}),
		SolverRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tidal_verify",
			Name:      "solver_run_duration_seconds",
			Help:      "Wall-clock duration of one solver run.",
			Buckets:   []float64{1, 5, 15, 60, 300, 900, 3600, 14400},
		}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tidal_verify",
			Name:      "extraction_duration_seconds",
			Help:      "Duration of result extraction for one case.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		GridsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tidal_verify",
			Name:      "grids_written_total",
			Help:      "Grid files written by output format.",
		}, []string{"format"}),
	}

	prometheus.MustRegister(
		m.CasesCompleted,
		m.CasesFailed,
		m.BatchRunning,
		m.SolverRunDuration,
		m.ExtractionDuration,
		m.GridsWritten,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		CasesCompleted:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tidal_verify", Name: "cases_completed_total"}),
		CasesFailed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "tidal_verify", Name: "cases_failed_total"}),
		BatchRunning:       prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "tidal_verify", Name: "batch_running"}),
		SolverRunDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "tidal_verify", Name: "solver_run_duration_seconds"}),
		ExtractionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "tidal_verify", Name: "extraction_duration_seconds"}),
		GridsWritten:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "tidal_verify", Name: "grids_written_total"}, []string{"format"}),
	}
}
