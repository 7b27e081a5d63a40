package metric

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var _ Payments = (*paymentMetrics)(nil)

type paymentMetrics struct {
	created      *prometheus.CounterVec
	completed    *prometheus.CounterVec
	expired      prometheus.Counter
	chargeFailed *prometheus.CounterVec
	volume       *prometheus.CounterVec
	otpIssued    *prometheus.CounterVec
	otpVerified  *prometheus.CounterVec
}

func newPaymentMetrics(r *promRegistry) *paymentMetrics {
	return &paymentMetrics{
		created: r.counterVec("payments", "created_total",
			"QR payment requests created", "currency"),
		completed: r.counterVec("payments", "completed_total",
			"QR payment requests completed", "channel"),
		expired: r.counter("payments", "expired_total",
			"QR payment requests that expired before completion"),
		chargeFailed: r.counterVec("payments", "charge_failed_total",
			"Failed charge attempts", "channel", "reason"),
		volume: r.counterVec("ledger", "gross_amount_total",
			"Gross amounts recorded in the ledger, in major units", "kind"),
		otpIssued: r.counterVec("otp", "issued_total",
			"Verification codes issued", "purpose", "delivered"),
		otpVerified: r.counterVec("otp", "verifications_total",
			"Verification attempts by result", "result"),
	}
}

func (m *paymentMetrics) PaymentCreated(currency string) {
	m.created.WithLabelValues(currency).Inc()
}

func (m *paymentMetrics) PaymentCompleted(channel string) {
	m.completed.WithLabelValues(channel).Inc()
}

func (m *paymentMetrics) PaymentExpired() {
	m.expired.Inc()
}

func (m *paymentMetrics) ChargeFailed(channel string, reason string) {
	m.chargeFailed.WithLabelValues(channel, reason).Inc()
}

// TransactionRecorded adds the gross amount; float precision is fine for dashboards.
func (m *paymentMetrics) TransactionRecorded(kind string, amount float64) {
	m.volume.WithLabelValues(kind).Add(amount)
}

func (m *paymentMetrics) OTPIssued(purpose string, delivered bool) {
	m.otpIssued.WithLabelValues(purpose, strconv.FormatBool(delivered)).Inc()
}

func (m *paymentMetrics) OTPVerified(result string) {
	m.otpVerified.WithLabelValues(result).Inc()
}
