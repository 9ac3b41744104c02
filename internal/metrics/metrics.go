package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

// MetricsRegistry holds all Prometheus metrics for the import service.
// A nil *MetricsRegistry is valid and records nothing.
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Database Metrics
	DBQueriesTotal  *prometheus.CounterVec
	DBQueryDuration *prometheus.HistogramVec
	DBConnections   *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Pipeline Metrics
	RecordsParsedTotal    *prometheus.CounterVec
	EntitiesUpsertedTotal *prometheus.CounterVec
	ImportErrorsTotal     prometheus.Counter
	SyncRunDuration       *prometheus.HistogramVec
	SyncRunsInFlight      prometheus.Gauge
}

// NewMetricsRegistry registers every metric on reg. Pass
// prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joconde_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "joconde_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "joconde_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Database Metrics
		DBQueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joconde_db_queries_total",
				Help: "Total database queries by operation type",
			},
			[]string{"query_type"},
		),
		DBQueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "joconde_db_query_duration_seconds",
				Help:    "Database query execution time in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"query_type"},
		),
		DBConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "joconde_db_connections",
				Help: "Current number of database connections",
			},
			[]string{"state"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joconde_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joconde_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Pipeline Metrics
		RecordsParsedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joconde_records_parsed_total",
				Help: "Source records read by the parsers, by outcome",
			},
			[]string{"outcome"},
		),
		EntitiesUpsertedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "joconde_entities_upserted_total",
				Help: "Catalog entities reconciled by the importer, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		ImportErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "joconde_import_errors_total",
				Help: "Entities the store refused during imports",
			},
		),
		SyncRunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "joconde_sync_run_duration_seconds",
				Help:    "Synchronization run time in seconds",
				Buckets: []float64{1, 5, 30, 60, 300, 600, 1800, 3600, 7200, 14400},
			},
			[]string{"type", "status"},
		),
		SyncRunsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "joconde_sync_runs_in_flight",
				Help: "Synchronization runs currently executing",
			},
		),
	}
}

// ObserveParse records the outcome counters of one parse run.
func (m *MetricsRegistry) ObserveParse(summary *dtos.ParseSummary) {
	if m == nil || summary == nil {
		return
	}
	m.RecordsParsedTotal.WithLabelValues("accepted").Add(float64(summary.RecordsAccepted))
	m.RecordsParsedTotal.WithLabelValues("rejected").Add(float64(summary.RecordsRejected))
	m.RecordsParsedTotal.WithLabelValues("failed").Add(float64(summary.RecordsFailed))
}

// ObserveImport records the per-kind counters of one import run.
func (m *MetricsRegistry) ObserveImport(stats *dtos.ImportStatistics) {
	if m == nil || stats == nil {
		return
	}
	for kind, c := range map[string]dtos.EntityCounts{
		"artwork":   stats.Artworks,
		"artist":    stats.Artists,
		"domain":    stats.Domains,
		"technique": stats.Techniques,
		"period":    stats.Periods,
		"museum":    stats.Museums,
	} {
		m.EntitiesUpsertedTotal.WithLabelValues(kind, "imported").Add(float64(c.Imported))
		m.EntitiesUpsertedTotal.WithLabelValues(kind, "updated").Add(float64(c.Updated))
		m.EntitiesUpsertedTotal.WithLabelValues(kind, "skipped").Add(float64(c.Skipped))
	}
	m.ImportErrorsTotal.Add(float64(stats.Errors))
}

// ObserveSync records the duration of a finished synchronization run.
func (m *MetricsRegistry) ObserveSync(syncType, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.SyncRunDuration.WithLabelValues(syncType, status).Observe(d.Seconds())
}

// ObserveQuery records a read query against the catalog.
func (m *MetricsRegistry) ObserveQuery(queryType string, d time.Duration) {
	if m == nil {
		return
	}
	m.DBQueriesTotal.WithLabelValues(queryType).Inc()
	m.DBQueryDuration.WithLabelValues(queryType).Observe(d.Seconds())
}

// ObserveCache records a cache lookup.
func (m *MetricsRegistry) ObserveCache(pattern string, hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHitsTotal.WithLabelValues(pattern).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(pattern).Inc()
}

// SetConnections publishes connection pool counts.
func (m *MetricsRegistry) SetConnections(open, inUse, idle int) {
	if m == nil {
		return
	}
	m.DBConnections.WithLabelValues("open").Set(float64(open))
	m.DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
}

// SyncStarted and SyncFinished bracket a running synchronization.
func (m *MetricsRegistry) SyncStarted() {
	if m != nil {
		m.SyncRunsInFlight.Inc()
	}
}

func (m *MetricsRegistry) SyncFinished() {
	if m != nil {
		m.SyncRunsInFlight.Dec()
	}
}
