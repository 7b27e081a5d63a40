package metric

import (
	"net/http"
	"time"
)

//go:generate mockgen -source=metrics.go -destination=mock/metric.go -package=mock_metric

type (
	Factory interface {
		HTTP() HTTP
		Transaction() Transaction
		Cache() Cache
		Publisher() Publisher
		Payments() Payments
		Handler() http.Handler
	}

	HTTP interface {
		Request(method, path string, status int, duration time.Duration)
		SlowRequest(method, path string, status int, duration time.Duration)
	}

	Transaction interface {
		ObserveDuration(operation string, duration time.Duration)
		IncrementRetries(operation string)
		IncrementFailures(operation string)
	}

	Cache interface {
		Hit(cache string)
		Miss(cache string)
		Eviction(cache string, reason string)
		Size(cache string, size int)
	}

	Publisher interface {
		Published(topic string)
		PublishFailed(topic string, reason string)
		Retried(topic string, attempt int)
	}

	Payments interface {
		PaymentCreated(currency string)
		PaymentCompleted(channel string)
		PaymentExpired()
		ChargeFailed(channel string, reason string)
		TransactionRecorded(kind string, amount float64)
		OTPIssued(purpose string, delivered bool)
		OTPVerified(result string)
	}
)
