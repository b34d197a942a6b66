// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. It implements
// the recorder interfaces of the query, store, tx and archive packages.
type Metrics struct {
	// Query metrics
	QueriesTotal *prometheus.CounterVec
	QueryLatency *prometheus.HistogramVec

	// Store metrics
	RefreshesTotal *prometheus.CounterVec
	CacheEntries   prometheus.Gauge

	// Chain metrics
	BlocksReceived    prometheus.Counter
	LatestBlockHeight prometheus.Gauge

	// Transaction metrics
	BroadcastsTotal *prometheus.CounterVec

	// Archive metrics
	ArchiveWritesTotal  *prometheus.CounterVec
	ArchiveWriteLatency *prometheus.HistogramVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
}

// NewMetrics creates a new Metrics instance registered with reg. A nil reg
// uses the default registerer.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "checkers"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Query metrics
		QueriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total number of module queries by name and status",
		}, []string{"query", "status"}),
		QueryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "query",
			Name:      "latency_seconds",
			Help:      "Module query latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),

		// Store metrics
		RefreshesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "refreshes_total",
			Help:      "Total number of subscription refreshes by action and status",
		}, []string{"action", "status"}),
		CacheEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "cache_entries",
			Help:      "Current number of cached query results",
		}),

		// Chain metrics
		BlocksReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "blocks_received_total",
			Help:      "Total number of NewBlock events received",
		}),
		LatestBlockHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "latest_block_height",
			Help:      "Height of the latest block received",
		}),

		// Transaction metrics
		BroadcastsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tx",
			Name:      "broadcasts_total",
			Help:      "Total number of transaction broadcasts by message and status",
		}, []string{"msg", "status"}),

		// Archive metrics
		ArchiveWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "writes_total",
			Help:      "Total number of archive writes by table and status",
		}, []string{"table", "status"}),
		ArchiveWriteLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "write_latency_seconds",
			Help:      "Archive write latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"table"}),

		// Health metrics
		LastSuccessfulRefresh: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of the last refresh without failures",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// HandlerFor returns an HTTP handler serving the metrics of g.
func HandlerFor(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveQuery records one module query.
func (m *Metrics) ObserveQuery(name string, err error, elapsed time.Duration) {
	m.QueriesTotal.WithLabelValues(name, status(err)).Inc()
	m.QueryLatency.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ObserveRefresh records one subscription refresh.
func (m *Metrics) ObserveRefresh(action string, err error) {
	m.RefreshesTotal.WithLabelValues(action, status(err)).Inc()
	if err == nil {
		m.LastSuccessfulRefresh.SetToCurrentTime()
	}
}

// SetCacheEntries updates the cache size gauge.
func (m *Metrics) SetCacheEntries(n int) {
	m.CacheEntries.Set(float64(n))
}

// ObserveBlock records a received block.
func (m *Metrics) ObserveBlock(height int64) {
	m.BlocksReceived.Inc()
	m.LatestBlockHeight.Set(float64(height))
}

// ObserveBroadcast records one transaction broadcast.
func (m *Metrics) ObserveBroadcast(msg string, err error) {
	m.BroadcastsTotal.WithLabelValues(msg, status(err)).Inc()
}

// ObserveArchiveWrite records one archive write.
func (m *Metrics) ObserveArchiveWrite(table string, err error, elapsed time.Duration) {
	m.ArchiveWritesTotal.WithLabelValues(table, status(err)).Inc()
	m.ArchiveWriteLatency.WithLabelValues(table).Observe(elapsed.Seconds())
}
