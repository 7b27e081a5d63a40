package kafka

import "time"

type Option func(*Producer)

// MaxAttempts counts the first write.
func MaxAttempts(count int) Option {
	return func(p *Producer) { p.backoff.Attempts = count }
}

func BaseRetryDelay(delay time.Duration) Option {
	return func(p *Producer) { p.backoff.Base = delay }
}

func MaxRetryDelay(delay time.Duration) Option {
	return func(p *Producer) { p.backoff.Max = delay }
}
