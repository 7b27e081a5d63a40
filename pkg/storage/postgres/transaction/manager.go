package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"qrpay/pkg/logger"
	"qrpay/pkg/metric"
	"qrpay/pkg/retry"
	"qrpay/pkg/storage/postgres"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Manager runs a unit of work in one database transaction. Serialization
// failures, deadlocks and dropped connections restart fn from the top, so fn
// must not have side effects outside tx.
type Manager interface {
	ExecuteInTransaction(
		ctx context.Context,
		operation string,
		fn func(tx postgres.QueryExecuter) error,
	) error
}

type manager struct {
	db       *postgres.Postgres
	log      logger.Logger
	metrics  metric.Transaction
	backoff  retry.Backoff
	isoLevel pgx.TxIsoLevel
}

func NewManager(
	db *postgres.Postgres,
	log logger.Logger,
	metrics metric.Transaction,
	opts ...Option,
) (Manager, error) {
	const op = "storage.postgres.transaction.NewManager"

	m := &manager{
		db:      db,
		log:     log,
		metrics: metrics,
		backoff: retry.Backoff{
			Attempts: 3,
			Base:     10 * time.Millisecond,
			Max:      100 * time.Millisecond,
		},
		isoLevel: pgx.ReadCommitted,
	}
	for _, opt := range opts {
		opt(m)
	}

	if db == nil || db.Pool == nil {
		return nil, fmt.Errorf("%s: nil pool", op)
	}
	if err := m.backoff.Validate(); err != nil {
		return nil, fmt.Errorf("%s: retry backoff: %w", op, err)
	}

	return m, nil
}

func (m *manager) ExecuteInTransaction(
	ctx context.Context,
	operation string,
	fn func(tx postgres.QueryExecuter) error,
) error {
	const op = "storage.postgres.transaction.ExecuteInTransaction"

	start := time.Now()
	defer func() { m.metrics.ObserveDuration(operation, time.Since(start)) }()

	_, err := retry.Do(ctx, m.backoff,
		func(ctx context.Context) error { return m.run(ctx, operation, fn) },
		retry.If(isRetryable),
		retry.OnRetry(func(attempt int, wait time.Duration, err error) {
			m.metrics.IncrementRetries(operation)
			m.log.LogAttrs(ctx, logger.WarnLevel, "transaction aborted, retrying",
				logger.String("transaction", operation),
				logger.Int("attempt", attempt),
				logger.String("retry_after", wait.String()),
				logger.Err(err),
			)
		}),
	)
	if err != nil {
		m.metrics.IncrementFailures(operation)
		if errors.Is(err, retry.ErrExhausted) {
			return fmt.Errorf("%s: %s: %w", op, operation, err)
		}
		return err
	}
	return nil
}

func (m *manager) run(ctx context.Context, operation string, fn func(tx postgres.QueryExecuter) error) error {
	tx, err := m.db.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: m.isoLevel, AccessMode: pgx.ReadWrite})
	if err != nil {
		return fmt.Errorf("%s: begin: %w", operation, err)
	}
	defer m.rollback(ctx, tx, operation)

	if err = fn(tx); err != nil {
		return HandleError(operation, "execute", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return HandleError(operation, "commit", err)
	}
	return nil
}

func (m *manager) rollback(ctx context.Context, tx pgx.Tx, operation string) {
	// Rollback after a successful commit reports ErrTxClosed.
	err := tx.Rollback(context.WithoutCancel(ctx))
	if err == nil || errors.Is(err, pgx.ErrTxClosed) {
		return
	}
	m.log.LogAttrs(ctx, logger.ErrorLevel, "rollback failed",
		logger.String("transaction", operation),
		logger.Err(err),
	)
}

var _retryableCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"08000": {}, "08001": {}, "08003": {}, "08004": {}, "08006": {}, "08007": {}, "08P01": {},
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := _retryableCodes[pgErr.Code]
		return ok
	}
	return errors.Is(err, pgx.ErrTxClosed)
}
