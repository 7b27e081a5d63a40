package transaction

import (
	"errors"
	"fmt"

	"qrpay/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	_uniqueViolation     = "23505"
	_foreignKeyViolation = "23503"
	_checkViolation      = "23514"
)

// HandleError maps driver errors raised inside a transaction to domain errors and
// tags them with the transaction and the step that failed. Domain errors pass through
// wrapped so errors.Is keeps working.
func HandleError(operation, step string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %s: %w", operation, step, entity.ErrDataNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case _uniqueViolation:
			return fmt.Errorf("%s: %s: %w", operation, step, entity.ErrConflictingData)
		case _foreignKeyViolation, _checkViolation:
			return fmt.Errorf("%s: %s: %w", operation, step, entity.ErrInvalidData)
		}
	}

	return fmt.Errorf("%s: %s: %w", operation, step, err)
}
