package transaction

import "time"

type Option func(*manager)

// MaxAttempts counts the first try; 1 disables retries.
func MaxAttempts(attempts int) Option {
	return func(m *manager) { m.backoff.Attempts = attempts }
}

func BaseRetryDelay(delay time.Duration) Option {
	return func(m *manager) { m.backoff.Base = delay }
}

func MaxRetryDelay(delay time.Duration) Option {
	return func(m *manager) { m.backoff.Max = delay }
}

