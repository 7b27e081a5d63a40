package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var _ HTTP = (*httpMetrics)(nil)

// httpMetrics labels by route template and status class so path parameters never
// become label values.
type httpMetrics struct {
	requests *prometheus.CounterVec
	slow     *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func newHTTPMetrics(r *promRegistry) *httpMetrics {
	return &httpMetrics{
		requests: r.counterVec("http", "requests_total",
			"HTTP requests by method, route and status class", "method", "path", "status"),
		slow: r.counterVec("http", "slow_requests_total",
			"HTTP requests slower than the handler threshold", "method", "path", "status"),
		latency: r.histogramVec("http", "request_duration_seconds",
			"HTTP request latency", []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			"method", "path", "status"),
	}
}

func (m *httpMetrics) Request(method, path string, status int, duration time.Duration) {
	class := statusClass(status)
	m.requests.WithLabelValues(method, path, class).Inc()
	m.latency.WithLabelValues(method, path, class).Observe(duration.Seconds())
}

func (m *httpMetrics) SlowRequest(method, path string, status int, _ time.Duration) {
	m.slow.WithLabelValues(method, path, statusClass(status)).Inc()
}

// statusClass turns 402 into "4xx". Anything outside 100..599 is reported as is.
func statusClass(status int) string {
	if status < 100 || status > 599 {
		return strconv.Itoa(status)
	}
	return strconv.Itoa(status/100) + "xx"
}
