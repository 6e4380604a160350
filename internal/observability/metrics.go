package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// data preparation pipeline.
type Metrics struct {
	RowsLoaded    *prometheus.CounterVec // labels: table={ctd_profiles,ctd_metadata,satellite_chl}
	RowsDropped   *prometheus.CounterVec // labels: stage, reason
	GroupsEmitted *prometheus.CounterVec // labels: stage={ctd_monthly,chl_monthly}

	RunsCompleted   prometheus.Counter
	RunDuration     prometheus.Histogram
	StageDuration   *prometheus.HistogramVec // labels: stage
	PipelineRunning prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sog_dataprep",
			Name:      "rows_loaded_total",
			Help:      "Rows read from each source table.",
		}, []string{"table"}),
		RowsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sog_dataprep",
			Name:      "rows_dropped_total",
			Help:      "Rows excluded during aggregation, by stage and reason.",
		}, []string{"stage", "reason"}),
		GroupsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sog_dataprep",
			Name:      "groups_emitted_total",
			Help:      "Aggregated groups produced by each stage.",
		}, []string{"stage"}),
		RunsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sog_dataprep",
			Name:      "runs_completed_total",
			Help:      "Total pipeline runs that finished successfully.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sog_dataprep",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-classify-aggregate-export run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sog_dataprep",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sog_dataprep",
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.RowsLoaded,
		m.RowsDropped,
		m.GroupsEmitted,
		m.RunsCompleted,
		m.RunDuration,
		m.StageDuration,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		RowsLoaded:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sog_dataprep", Name: "rows_loaded_total"}, []string{"table"}),
		RowsDropped:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sog_dataprep", Name: "rows_dropped_total"}, []string{"stage", "reason"}),
		GroupsEmitted:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "sog_dataprep", Name: "groups_emitted_total"}, []string{"stage"}),
		RunsCompleted:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "sog_dataprep", Name: "runs_completed_total"}),
		RunDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "sog_dataprep", Name: "run_duration_seconds"}),
		StageDuration:   prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "sog_dataprep", Name: "stage_duration_seconds"}, []string{"stage"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "sog_dataprep", Name: "pipeline_running"}),
	}
}
