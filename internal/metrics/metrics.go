// Package metrics provides Prometheus instrumentation for store fetches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	bucketStart1ms = 0.001
	bucketFactor2  = 2
	bucketCount15  = 15
)

// FetchMetrics counts queries, aggregations and the responses the viewers
// discard.
type FetchMetrics struct {
	registry *prometheus.Registry

	fetchesTotal          *prometheus.CounterVec
	fetchDuration         *prometheus.HistogramVec
	validationErrorsTotal *prometheus.CounterVec
	staleResponsesTotal   *prometheus.CounterVec
}

// NewFetchMetrics creates and registers the fetch metrics.
func NewFetchMetrics(registry *prometheus.Registry) (*FetchMetrics, error) {
	m := &FetchMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *FetchMetrics) initMetrics() {
	m.fetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcview_fetches_total",
			Help: "Total number of store fetches by operation",
		},
		[]string{"operation", "status"}, // status: ok, error
	)

	m.fetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "arcview_fetch_duration_seconds",
			Help: "Time taken by a query or a full project aggregation",
			// 1ms to ~16s; a deep project walk issues one request per node.
			Buckets: prometheus.ExponentialBuckets(bucketStart1ms, bucketFactor2, bucketCount15),
		},
		[]string{"operation"},
	)

	m.validationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcview_validation_errors_total",
			Help: "Total number of filters rejected before a request was issued",
		},
		[]string{"operation"},
	)

	m.staleResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arcview_stale_responses_total",
			Help: "Total number of responses discarded because a newer request was dispatched",
		},
		[]string{"operation"},
	)
}

// Describe implements the Collector interface
func (m *FetchMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.fetchesTotal.Describe(ch)
	m.fetchDuration.Describe(ch)
	m.validationErrorsTotal.Describe(ch)
	m.staleResponsesTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *FetchMetrics) Collect(ch chan<- prometheus.Metric) {
	m.fetchesTotal.Collect(ch)
	m.fetchDuration.Collect(ch)
	m.validationErrorsTotal.Collect(ch)
	m.staleResponsesTotal.Collect(ch)
}

// RecordFetch records one settled fetch and its duration
func (m *FetchMetrics) RecordFetch(operation, status string, duration time.Duration) {
	m.fetchesTotal.WithLabelValues(operation, status).Inc()
	m.fetchDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordValidationError records a rejected filter
func (m *FetchMetrics) RecordValidationError(operation string) {
	m.validationErrorsTotal.WithLabelValues(operation).Inc()
}

// RecordStaleResponse records a discarded response
func (m *FetchMetrics) RecordStaleResponse(operation string) {
	m.staleResponsesTotal.WithLabelValues(operation).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *FetchMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
