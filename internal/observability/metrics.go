package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hurriaid"

// Metrics holds the Prometheus counters and histograms for the service.
type Metrics struct {
	// Assessment pipeline metrics.
	AssessmentsTotal   *prometheus.CounterVec   // labels: risk={SAFE,LOW,MEDIUM,HIGH,ERROR}
	StageErrors        *prometheus.CounterVec   // labels: stage={watcher,shelters,checklist,planner}
	StageDuration      *prometheus.HistogramVec // labels: stage={watcher,checklist,planner,parallel,total}
	AssessmentsPublish *prometheus.CounterVec   // labels: outcome={success,error}

	// Language model metrics.
	OracleRequests *prometheus.CounterVec   // labels: operation, outcome={success,error,timeout,unconfigured}
	OracleRetries  *prometheus.CounterVec   // labels: operation
	OracleDuration *prometheus.HistogramVec // labels: operation

	// Rumor check metrics.
	RumorChecks *prometheus.CounterVec // labels: source={model,rules}, overall
	RumorCache  *prometheus.CounterVec // labels: result={hit,miss}

	// ZIP resolution metrics.
	ZIPLookups    *prometheus.CounterVec   // labels: source={table,mapbox}, outcome={success,error,not_found}
	ZIPCache      *prometheus.CounterVec   // labels: result={hit,miss}
	MapboxAPI     *prometheus.HistogramVec // labels: method={postcode}
	MapboxEnabled prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.AssessmentsTotal,
		m.StageErrors,
		m.StageDuration,
		m.AssessmentsPublish,
		m.OracleRequests,
		m.OracleRetries,
		m.OracleDuration,
		m.RumorChecks,
		m.RumorCache,
		m.ZIPLookups,
		m.ZIPCache,
		m.MapboxAPI,
		m.MapboxEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Completed assessments by risk level.",
		}, []string{"risk"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Assessment stage failures by stage.",
		}, []string{"stage"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of assessment stages.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		AssessmentsPublish: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_published_total",
			Help:      "Assessment events published to Kafka by outcome.",
		}, []string{"outcome"}),
		OracleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_requests_total",
			Help:      "Language model calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		OracleRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_retries_total",
			Help:      "Language model retry attempts by operation.",
		}, []string{"operation"}),
		OracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_duration_seconds",
			Help:      "Language model call duration including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"operation"}),
		RumorChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rumor_checks_total",
			Help:      "Rumor checks by source and overall verdict.",
		}, []string{"source", "overall"}),
		RumorCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rumor_cache_total",
			Help:      "Rumor verdict cache lookups by result.",
		}, []string{"result"}),
		ZIPLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zip_lookups_total",
			Help:      "ZIP resolutions by source and outcome.",
		}, []string{"source", "outcome"}),
		ZIPCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zip_cache_total",
			Help:      "ZIP cache lookups by result.",
		}, []string{"result"}),
		MapboxAPI: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mapbox_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		MapboxEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mapbox_enabled",
			Help:      "1 when Mapbox ZIP geocoding is enabled, 0 otherwise.",
		}),
	}
}
