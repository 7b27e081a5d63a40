package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const _namespace = "qrpay"

var _ Factory = (*prometheusFactory)(nil)

type prometheusFactory struct {
	registry    *promRegistry
	http        *httpMetrics
	transaction *transactionMetrics
	cache       *cacheMetrics
	publisher   *publisherMetrics
	payments    *paymentMetrics
}

// NewFactory builds every metric set on a private registry, so factories never collide.
func NewFactory() Factory {
	registry := newPromRegistry()

	return &prometheusFactory{
		registry:    registry,
		http:        newHTTPMetrics(registry),
		transaction: newTransactionMetrics(registry),
		cache:       newCacheMetrics(registry),
		publisher:   newPublisherMetrics(registry),
		payments:    newPaymentMetrics(registry),
	}
}

func (f *prometheusFactory) HTTP() HTTP               { return f.http }
func (f *prometheusFactory) Transaction() Transaction { return f.transaction }
func (f *prometheusFactory) Cache() Cache             { return f.cache }
func (f *prometheusFactory) Publisher() Publisher     { return f.publisher }
func (f *prometheusFactory) Payments() Payments       { return f.payments }

func (f *prometheusFactory) Handler() http.Handler {
	return promhttp.HandlerFor(f.registry.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          f.registry.registry,
	})
}

// promRegistry registers every collector under the qrpay namespace.
type promRegistry struct {
	registry *prometheus.Registry
}

func newPromRegistry() *promRegistry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &promRegistry{registry: reg}
}

func (r *promRegistry) counter(subsystem, name, help string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: _namespace, Subsystem: subsystem, Name: name, Help: help,
	})
	r.registry.MustRegister(c)
	return c
}

func (r *promRegistry) counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: _namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
	r.registry.MustRegister(c)
	return c
}

func (r *promRegistry) gaugeVec(subsystem, name, help string, labels ...string) *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: _namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
	r.registry.MustRegister(g)
	return g
}

func (r *promRegistry) histogramVec(
	subsystem, name, help string,
	buckets []float64,
	labels ...string,
) *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: _namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
	r.registry.MustRegister(h)
	return h
}
