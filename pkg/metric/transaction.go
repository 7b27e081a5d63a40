package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var _ Transaction = (*transactionMetrics)(nil)

// transactionMetrics is labelled by the name given to ExecuteInTransaction,
// e.g. "CompletePayment" or "CreateTransfer".
type transactionMetrics struct {
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func newTransactionMetrics(r *promRegistry) *transactionMetrics {
	return &transactionMetrics{
		duration: r.histogramVec("db", "transaction_duration_seconds",
			"Duration of database transactions including retries",
			[]float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}, "operation"),
		retries: r.counterVec("db", "transaction_retries_total",
			"Transaction attempts repeated after a retryable error", "operation"),
		failures: r.counterVec("db", "transaction_failures_total",
			"Transactions that failed after the last attempt", "operation"),
	}
}

func (m *transactionMetrics) ObserveDuration(operation string, duration time.Duration) {
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *transactionMetrics) IncrementRetries(operation string) {
	m.retries.WithLabelValues(operation).Inc()
}

func (m *transactionMetrics) IncrementFailures(operation string) {
	m.failures.WithLabelValues(operation).Inc()
}
