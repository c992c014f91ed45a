package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal  *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	syncRunsTotal  *prometheus.CounterVec
	syncRowsTotal  *prometheus.CounterVec
	syncDuration   prometheus.Histogram
	writebackTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketsync_http_requests_total",
			Help: "HTTP requests by path, method and status.",
		}, []string{"path", "method", "status"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketsync_http_errors_total",
			Help: "Request errors by domain error code.",
		}, []string{"code"}),
		syncRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketsync_sync_runs_total",
			Help: "Synchronization runs by result.",
		}, []string{"result"}),
		syncRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketsync_sync_rows_total",
			Help: "Ingested feed rows by result.",
		}, []string{"result"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticketsync_sync_duration_seconds",
			Help:    "Wall time of full synchronization runs.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
		writebackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketsync_writeback_total",
			Help: "Best-effort status write-backs by result.",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.syncRunsTotal,
		m.syncRowsTotal,
		m.syncDuration,
		m.writebackTotal,
	)
	return m
}

// Handler exposes the registry for the metrics listener.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts a served request.
func (m *Metrics) RecordRequest(path, method string, status int, _ time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

// RecordError counts a request error by domain code.
func (m *Metrics) RecordError(code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(code).Inc()
}

// RecordSyncRun counts a pipeline run outcome: ok, error or skipped.
func (m *Metrics) RecordSyncRun(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.syncRunsTotal.WithLabelValues(result).Inc()
	if result != "skipped" {
		m.syncDuration.Observe(elapsed.Seconds())
	}
}

// RecordSyncRows counts ingested rows.
func (m *Metrics) RecordSyncRows(succeeded, failed int) {
	if m == nil {
		return
	}
	m.syncRowsTotal.WithLabelValues("ok").Add(float64(succeeded))
	m.syncRowsTotal.WithLabelValues("error").Add(float64(failed))
}

// RecordWriteback counts a write-back attempt outcome: ok, error or skipped.
func (m *Metrics) RecordWriteback(result string) {
	if m == nil {
		return
	}
	m.writebackTotal.WithLabelValues(result).Inc()
}
