package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "market_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the ETL pipeline.
type Metrics struct {
	BuildsTotal     *prometheus.CounterVec // labels: outcome={success,fatal,superseded}
	BuildDuration   prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Source metrics.
	SourceLoads   *prometheus.CounterVec // labels: dataset, outcome={loaded,failed}
	SourceRows    *prometheus.GaugeVec   // labels: dataset
	ParseWarnings *prometheus.CounterVec // labels: dataset
	JoinMisses    *prometheus.CounterVec // labels: dataset

	// Fetch metrics.
	FetchRequests *prometheus.CounterVec   // labels: scheme={file,http,https,s3}, outcome={success,error}
	FetchCache    *prometheus.CounterVec   // labels: result={hit,miss}
	FetchDuration *prometheus.HistogramVec // labels: scheme

	// Snapshot metrics.
	Counties         prometheus.Gauge
	MSAs             prometheus.Gauge
	UnmappedCounties prometheus.Gauge
	RecordsPublished prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.BuildsTotal,
		m.BuildDuration,
		m.PipelineRunning,
		m.SourceLoads,
		m.SourceRows,
		m.ParseWarnings,
		m.JoinMisses,
		m.FetchRequests,
		m.FetchCache,
		m.FetchDuration,
		m.Counties,
		m.MSAs,
		m.UnmappedCounties,
		m.RecordsPublished,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Snapshot builds by outcome.",
		}, []string{"outcome"}),
		BuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of a complete load, join, classify and aggregate cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		SourceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_loads_total",
			Help:      "Source loads by dataset and outcome.",
		}, []string{"dataset", "outcome"}),
		SourceRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_rows",
			Help:      "Rows parsed from each source in the latest build.",
		}, []string{"dataset"}),
		ParseWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_warnings_total",
			Help:      "Malformed rows skipped while parsing.",
		}, []string{"dataset"}),
		JoinMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "join_misses_total",
			Help:      "Secondary or benchmark rows that matched no seeded county.",
		}, []string{"dataset"}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Source fetches by scheme and outcome.",
		}, []string{"scheme", "outcome"}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "HTTP payload cache lookups by result.",
		}, []string{"result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Source fetch duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15, 30},
		}, []string{"scheme"}),
		Counties: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "counties",
			Help:      "Counties in the current snapshot.",
		}),
		MSAs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "msas",
			Help:      "Metro areas in the current snapshot.",
		}),
		UnmappedCounties: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "unmapped_counties",
			Help:      "Counties absent from the benchmark crosswalk in the current snapshot.",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "County and MSA records written to the sink topic.",
		}),
	}
}
