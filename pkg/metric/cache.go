package metric

import "github.com/prometheus/client_golang/prometheus"

var _ Cache = (*cacheMetrics)(nil)

// cacheMetrics is labelled by cache name ("vendors", "users").
type cacheMetrics struct {
	lookups   *prometheus.CounterVec
	evictions *prometheus.CounterVec
	entries   *prometheus.GaugeVec
}

func newCacheMetrics(r *promRegistry) *cacheMetrics {
	return &cacheMetrics{
		lookups: r.counterVec("cache", "lookups_total",
			"Cache lookups by cache and result", "cache", "result"),
		evictions: r.counterVec("cache", "evictions_total",
			"Entries removed from a cache by reason", "cache", "reason"),
		entries: r.gaugeVec("cache", "entries",
			"Entries currently held", "cache"),
	}
}

func (m *cacheMetrics) Hit(cache string) {
	m.lookups.WithLabelValues(cache, "hit").Inc()
}

func (m *cacheMetrics) Miss(cache string) {
	m.lookups.WithLabelValues(cache, "miss").Inc()
}

func (m *cacheMetrics) Eviction(cache string, reason string) {
	m.evictions.WithLabelValues(cache, reason).Inc()
}

func (m *cacheMetrics) Size(cache string, size int) {
	m.entries.WithLabelValues(cache).Set(float64(size))
}
