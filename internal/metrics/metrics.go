// Package metrics holds the Prometheus collectors for the HTTP server and the
// tag ingest pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector the service exports.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	HTTPInFlight  prometheus.Gauge
	IngestItems   *prometheus.CounterVec
	IngestBatches prometheus.Histogram
}

// New registers the collectors on reg. Use prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Total HTTP requests partitioned by method, route, and status code
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		HTTPInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_inflight_requests",
				Help: "Number of HTTP requests currently being served",
			},
		),
		IngestItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rfid_ingest_items_total",
				Help: "Tag creation items processed, by outcome",
			},
			[]string{"outcome"},
		),
		IngestBatches: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rfid_ingest_batch_size",
				Help:    "Number of items per creation request",
				Buckets: []float64{1, 5, 10, 50, 100, 500, 1000},
			},
		),
	}
}

// ObserveItem counts one ingest item outcome.
func (m *Metrics) ObserveItem(outcome string) {
	m.IngestItems.WithLabelValues(outcome).Inc()
}

// ObserveBatch records the size of one creation request.
func (m *Metrics) ObserveBatch(size int) {
	m.IngestBatches.Observe(float64(size))
}
