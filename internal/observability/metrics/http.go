package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics covers API requests and the dashboard response cache.
type HTTPMetrics struct {
	collectorSet

	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	responseSize *prometheus.HistogramVec
	cache        *prometheus.CounterVec
}

// NewHTTPMetrics registers the HTTP collectors. Paths are route templates,
// e.g. /api/v1/sessions/:id, to keep label cardinality bounded.
func NewHTTPMetrics(registry prometheus.Registerer) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: counter("http_requests_total", "Total number of HTTP requests",
			"method", "path", "status_code"),
		duration: histogram("http_request_duration_seconds", "Time taken for HTTP requests",
			prometheus.DefBuckets, "method", "path"),
		responseSize: histogram("http_response_size_bytes", "Size of HTTP responses in bytes",
			prometheus.ExponentialBuckets(100, 10, 6), "method", "path"), // 100B to 10MB
		cache: counter("http_response_cache_total", "Dashboard response cache lookups by result",
			"result"),
	}
	m.collectorSet = collectorSet{m.requests, m.duration, m.responseSize, m.cache}
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordHTTPRequest records a finished request.
func (m *HTTPMetrics) RecordHTTPRequest(method, path, statusCode string, seconds float64, size int64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, path, statusCode).Inc()
	m.duration.WithLabelValues(method, path).Observe(seconds)
	if size > 0 {
		m.responseSize.WithLabelValues(method, path).Observe(float64(size))
	}
}

// RecordResponseCache records a response cache lookup.
func (m *HTTPMetrics) RecordResponseCache(hit bool) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(hitOrMiss(hit)).Inc()
}
