package repository

import (
	"context"
	"errors"
	"fmt"

	"qrpay/internal/entity"
	"qrpay/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepository struct {
	db *postgres.Postgres
}

func NewUserRepository(db *postgres.Postgres) *UserRepository {
	return &UserRepository{db}
}

func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	const op = "repository.user.Create"

	query := r.db.Builder.Insert("users").
		Columns("id", "name", "phone", "payment_url", "qr_code", "created_at").
		Values(user.ID, user.Name, user.Phone, user.PaymentURL, user.QRCode, user.CreatedAt)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	if _, err = r.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: exec: %w", op, mapError(err))
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	const op = "repository.user.GetByID"

	query := r.db.Builder.Select("id", "name", "phone", "payment_url", "qr_code", "created_at").
		From("users").
		Where(squirrel.Eq{"id": id}).
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	u := &entity.User{}
	err = r.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Phone,
		&u.PaymentURL,
		&u.QRCode,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}
	return u, nil
}
