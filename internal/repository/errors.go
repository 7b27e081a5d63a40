package repository

import (
	"errors"

	"qrpay/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const _uniqueViolation = "23505"

// mapError translates the driver errors repositories expect into domain errors.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return entity.ErrDataNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == _uniqueViolation {
		return entity.ErrConflictingData
	}
	return err
}
