package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer, app string) *HTTPMetrics {
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "storefront",
			Name:        "http_requests_total",
			Help:        "Number of handled http requests.",
			ConstLabels: prometheus.Labels{"app": app},
		}, []string{"method", "route", "status"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   "storefront",
			Name:        "http_request_duration_seconds",
			Help:        "Latency of handled http requests.",
			ConstLabels: prometheus.Labels{"app": app},
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.Requests, m.Duration)
	return m
}

type CartMetrics struct {
	Operations *prometheus.CounterVec
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	m := &CartMetrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Number of cart operations by operation and result.",
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(m.Operations)
	return m
}

func (m *CartMetrics) Observe(operation string, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failed"
	}
	m.Operations.WithLabelValues(operation, result).Inc()
}
