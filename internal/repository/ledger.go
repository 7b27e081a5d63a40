package repository

import (
	"context"
	"fmt"

	"qrpay/internal/entity"
	"qrpay/pkg/storage/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var transactionColumns = []string{
	"id", "kind", "payment_id", "transfer_id", "vendor_id", "user_id", "customer_id",
	"amount", "vendor_amount", "platform_fee", "currency", "status", "channel",
	"description", "payer_name", "payer_phone", "charge_ref", "created_at",
}

type LedgerRepository struct {
	db *postgres.Postgres
}

func NewLedgerRepository(db *postgres.Postgres) *LedgerRepository {
	return &LedgerRepository{db}
}

func (r *LedgerRepository) Append(ctx context.Context, txn *entity.Transaction) error {
	if err := insertTransaction(ctx, r.db, r.db.Pool, txn); err != nil {
		return fmt.Errorf("repository.ledger.Append: %w", mapError(err))
	}
	return nil
}

func (r *LedgerRepository) ListFor(ctx context.Context, identityID uuid.UUID) ([]*entity.Transaction, error) {
	return r.list(ctx, "repository.ledger.ListFor", squirrel.Or{
		squirrel.Eq{"vendor_id": identityID},
		squirrel.Eq{"user_id": identityID},
		squirrel.Eq{"customer_id": identityID},
	})
}

func (r *LedgerRepository) ListAll(ctx context.Context) ([]*entity.Transaction, error) {
	return r.list(ctx, "repository.ledger.ListAll", nil)
}

func (r *LedgerRepository) list(ctx context.Context, op string, where squirrel.Sqlizer) ([]*entity.Transaction, error) {
	query := r.db.Builder.Select(transactionColumns...).
		From("transactions").
		OrderBy("created_at DESC")
	if where != nil {
		query = query.Where(where)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	txns := make([]*entity.Transaction, 0)
	for rows.Next() {
		txn, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("%s: row scan: %w", op, scanErr)
		}
		txns = append(txns, txn)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: rows final error: %w", op, rows.Err())
	}
	return txns, nil
}

// insertTransaction runs on the pool or inside a transaction, whichever q is.
func insertTransaction(
	ctx context.Context,
	db *postgres.Postgres,
	q postgres.QueryExecuter,
	txn *entity.Transaction,
) error {
	query := db.Builder.Insert("transactions").
		Columns(transactionColumns...).
		Values(
			txn.ID,
			string(txn.Kind),
			txn.PaymentID,
			txn.TransferID,
			txn.VendorID,
			txn.UserID,
			txn.CustomerID,
			txn.Amount,
			txn.VendorAmount,
			txn.PlatformFee,
			txn.Currency,
			string(txn.Status),
			string(txn.Channel),
			txn.Description,
			txn.PayerName,
			txn.PayerPhone,
			txn.ChargeRef,
			txn.CreatedAt,
		)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	_, err = q.Exec(ctx, sql, args...)
	return err
}

func scanTransaction(row pgx.Row) (*entity.Transaction, error) {
	txn := &entity.Transaction{}
	var kind, status, channel string
	err := row.Scan(
		&txn.ID,
		&kind,
		&txn.PaymentID,
		&txn.TransferID,
		&txn.VendorID,
		&txn.UserID,
		&txn.CustomerID,
		&txn.Amount,
		&txn.VendorAmount,
		&txn.PlatformFee,
		&txn.Currency,
		&status,
		&channel,
		&txn.Description,
		&txn.PayerName,
		&txn.PayerPhone,
		&txn.ChargeRef,
		&txn.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	txn.Kind = entity.TransactionKind(kind)
	txn.Status = entity.TransactionStatus(status)
	txn.Channel = entity.Channel(channel)
	return txn, nil
}
