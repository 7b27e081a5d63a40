package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"qrpay/internal/entity"
	"qrpay/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var vendorColumns = []string{
	"id", "name", "email", "business_name", "password_hash", "payment_url", "qr_code", "created_at",
}

type VendorRepository struct {
	db *postgres.Postgres
}

func NewVendorRepository(db *postgres.Postgres) *VendorRepository {
	return &VendorRepository{db}
}

func (r *VendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	const op = "repository.vendor.Create"

	query := r.db.Builder.Insert("vendors").
		Columns(vendorColumns...).
		Values(
			vendor.ID,
			vendor.Name,
			vendor.Email,
			vendor.BusinessName,
			vendor.PasswordHash,
			vendor.PaymentURL,
			vendor.QRCode,
			vendor.CreatedAt,
		)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	if _, err = r.db.Pool.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("%s: exec: %w", op, mapError(err))
	}
	return nil
}

func (r *VendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Vendor, error) {
	return r.getOne(ctx, "repository.vendor.GetByID", squirrel.Eq{"id": id})
}

func (r *VendorRepository) GetByEmail(ctx context.Context, email string) (*entity.Vendor, error) {
	return r.getOne(ctx, "repository.vendor.GetByEmail",
		squirrel.Expr("LOWER(email) = ?", strings.ToLower(email)))
}

func (r *VendorRepository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*entity.Vendor, error) {
	query := r.db.Builder.Select(vendorColumns...).
		From("vendors").
		Where(where).
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	v := &entity.Vendor{}
	err = r.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&v.ID,
		&v.Name,
		&v.Email,
		&v.BusinessName,
		&v.PasswordHash,
		&v.PaymentURL,
		&v.QRCode,
		&v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}
	return v, nil
}
