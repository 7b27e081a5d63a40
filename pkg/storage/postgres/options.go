package postgres

import "time"

type Option func(*settings)

func MaxPoolSize(size int32) Option {
	return func(s *settings) { s.maxPoolSize = size }
}

// MaxConnAttempts bounds how many times the initial connect is tried.
func MaxConnAttempts(attempts int) Option {
	return func(s *settings) { s.connect.Attempts = attempts }
}

func BaseRetryDelay(delay time.Duration) Option {
	return func(s *settings) { s.connect.Base = delay }
}

func MaxRetryDelay(delay time.Duration) Option {
	return func(s *settings) { s.connect.Max = delay }
}
