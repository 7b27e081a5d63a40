// Package retry runs an operation with capped, fully jittered exponential backoff.
// Database pools, the event producer and the Redis client all connect or write
// through it.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"
)

var ErrExhausted = errors.New("retry attempts exhausted")

type Backoff struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

func (b Backoff) Validate() error {
	switch {
	case b.Attempts <= 0:
		return fmt.Errorf("attempts must be > 0, got %d", b.Attempts)
	case b.Base <= 0:
		return fmt.Errorf("base delay must be > 0, got %s", b.Base)
	case b.Max <= 0:
		return fmt.Errorf("max delay must be > 0, got %s", b.Max)
	case b.Base > b.Max:
		return fmt.Errorf("base delay %s exceeds max delay %s", b.Base, b.Max)
	}
	return nil
}

// Wait returns the pause before attempt n+1: uniform in [0, min(Max, Base*2^n)).
func (b Backoff) Wait(n int) time.Duration {
	ceiling := b.Base
	for i := 1; i < n && ceiling < b.Max; i++ {
		ceiling *= 2
	}
	ceiling = min(ceiling*2, b.Max)
	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

type config struct {
	retryable func(error) bool
	onRetry   func(attempt int, wait time.Duration, err error)
}

type Option func(*config)

// If limits retries to errors for which retryable returns true. Other errors
// are returned immediately, unwrapped.
func If(retryable func(error) bool) Option {
	return func(c *config) {
		c.retryable = retryable
	}
}

// OnRetry is called after a failed attempt, before sleeping.
func OnRetry(fn func(attempt int, wait time.Duration, err error)) Option {
	return func(c *config) {
		c.onRetry = fn
	}
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts run
// out or ctx is done. It reports the number of attempts made.
func Do(ctx context.Context, b Backoff, fn func(ctx context.Context) error, opts ...Option) (int, error) {
	cfg := config{retryable: func(error) bool { return true }}
	for _, opt := range opts {
		opt(&cfg)
	}

	var lastErr error
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if !cfg.retryable(lastErr) {
			return attempt, lastErr
		}
		if err := ctx.Err(); err != nil {
			return attempt, fmt.Errorf("%w: %w", err, lastErr)
		}
		if attempt == b.Attempts {
			break
		}

		wait := b.Wait(attempt)
		if cfg.onRetry != nil {
			cfg.onRetry(attempt, wait, lastErr)
		}

		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return attempt, fmt.Errorf("%w: %w", ctx.Err(), lastErr)
		}
	}

	return b.Attempts, fmt.Errorf("%w after %d attempts: %w", ErrExhausted, b.Attempts, lastErr)
}
