package processor

import (
	"github.com/stripe/stripe-go/v76"
)

type settings struct {
	backends *stripe.Backends
}

type Option func(*settings)

// WithBaseURL points every Stripe backend at url. Used against stripe-mock and in tests.
func WithBaseURL(url string) Option {
	return func(s *settings) {
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(url),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
		})
		s.backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}
}
