package observability

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	MediaOperations *prometheus.CounterVec
	BlobsDeleted    prometheus.Counter
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// NewMetrics registers all collectors on a dedicated registry.
func NewMetrics() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MediaOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "media_operations_total",
			Help: "Media lifecycle operations by operation and result.",
		}, []string{"op", "result"}),
		BlobsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "media_blobs_deleted_total",
			Help: "Blob store keys removed by media operations.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "route"}),
	}

	all := []prometheus.Collector{
		m.MediaOperations,
		m.BlobsDeleted,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range all {
		if err := m.registry.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if !errors.As(err, &already) {
				return nil, err
			}
		}
	}
	return m, nil
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveMediaOp records the outcome of one media operation.
func (m *Metrics) ObserveMediaOp(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.MediaOperations.WithLabelValues(op, result).Inc()
}

// AddBlobsDeleted counts removed blob keys.
func (m *Metrics) AddBlobsDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BlobsDeleted.Add(float64(n))
}
