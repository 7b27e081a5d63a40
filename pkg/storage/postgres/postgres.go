package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"qrpay/internal/config"
	"qrpay/pkg/logger"
	"qrpay/pkg/retry"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres bundles the pgx pool with a squirrel builder preset to $n placeholders.
type Postgres struct {
	Builder squirrel.StatementBuilderType
	Pool    *pgxpool.Pool
}

type settings struct {
	maxPoolSize int32
	connect     retry.Backoff
}

func defaultSettings() settings {
	return settings{
		maxPoolSize: 100,
		connect: retry.Backoff{
			Attempts: 10,
			Base:     100 * time.Millisecond,
			Max:      5 * time.Second,
		},
	}
}

// NewPostgres opens a pool and pings it, retrying while the database comes up.
func NewPostgres(
	ctx context.Context,
	cfg *config.Postgres,
	log logger.Logger,
	opts ...Option,
) (*Postgres, error) {
	const op = "storage.postgres.NewPostgres"

	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	if s.maxPoolSize <= 0 {
		return nil, fmt.Errorf("%s: max pool size must be > 0, got %d", op, s.maxPoolSize)
	}
	if err := s.connect.Validate(); err != nil {
		return nil, fmt.Errorf("%s: connect backoff: %w", op, err)
	}

	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: parse pool config: %w", op, err)
	}
	poolConfig.MaxConns = s.maxPoolSize

	var pool *pgxpool.Pool
	attempts, err := retry.Do(ctx, s.connect, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return err
		}
		if err = p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}, retry.OnRetry(func(attempt int, wait time.Duration, err error) {
		log.Warnw("postgres not reachable yet",
			"host", cfg.Host,
			"database", cfg.Name,
			"attempt", attempt,
			"retry_after", wait.String(),
			"error", err,
		)
	}))
	if err != nil {
		return nil, fmt.Errorf("%s: connect to %s/%s: %w", op, cfg.Host, cfg.Name, err)
	}

	log.Infow("postgres pool ready",
		"host", cfg.Host,
		"database", cfg.Name,
		"max_conns", s.maxPoolSize,
		"attempts", attempts,
	)

	return &Postgres{
		Builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		Pool:    pool,
	}, nil
}

// DSN renders a pgx connection string from config.
func DSN(cfg *config.Postgres) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": []string{cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

func (p *Postgres) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
