package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

var _ Publisher = (*publisherMetrics)(nil)

type publisherMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
	attempts  *prometheus.HistogramVec
}

func newPublisherMetrics(r *promRegistry) *publisherMetrics {
	return &publisherMetrics{
		published: r.counterVec("events", "published_total",
			"Events written to the broker", "topic"),
		failed: r.counterVec("events", "publish_failed_total",
			"Events dropped after the last publish attempt", "topic", "reason"),
		attempts: r.histogramVec("events", "publish_attempts",
			"Attempts needed to publish an event", []float64{1, 2, 3, 4, 5, 10, 20}, "topic"),
	}
}

func (m *publisherMetrics) Published(topic string) {
	m.published.WithLabelValues(topic).Inc()
}

func (m *publisherMetrics) PublishFailed(topic string, reason string) {
	m.failed.WithLabelValues(topic, reason).Inc()
}

func (m *publisherMetrics) Retried(topic string, attempt int) {
	m.attempts.WithLabelValues(topic).Observe(float64(attempt))
}
