package redis

import (
	"context"
	"fmt"
	"time"

	"qrpay/internal/config"
	"qrpay/pkg/logger"
	"qrpay/pkg/retry"

	goredis "github.com/redis/go-redis/v9"
)

// Redis holds the client shared by the OTP store, the revocation list, payment
// locks and the idempotency middleware.
type Redis struct {
	Client *goredis.Client
}

func NewRedis(ctx context.Context, cfg *config.Redis, log logger.Logger) (*Redis, error) {
	const op = "storage.redis.NewRedis"

	backoff := retry.Backoff{Attempts: cfg.ConnAttempts, Base: 100 * time.Millisecond, Max: 3 * time.Second}
	if err := backoff.Validate(); err != nil {
		return nil, fmt.Errorf("%s: connect backoff: %w", op, err)
	}

	client := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	_, err := retry.Do(ctx, backoff,
		func(ctx context.Context) error { return client.Ping(ctx).Err() },
		retry.OnRetry(func(attempt int, wait time.Duration, err error) {
			log.Warnw("redis not reachable yet",
				"addr", cfg.Addr,
				"attempt", attempt,
				"retry_after", wait.String(),
				"error", err,
			)
		}),
	)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: ping %s: %w", op, cfg.Addr, err)
	}

	return &Redis{Client: client}, nil
}

func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	if err := r.Client.Close(); err != nil {
		return fmt.Errorf("storage.redis.Close: %w", err)
	}
	return nil
}
