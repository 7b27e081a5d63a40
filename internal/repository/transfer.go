package repository

import (
	"context"
	"errors"
	"fmt"

	"qrpay/internal/entity"
	"qrpay/pkg/storage/postgres"
	"qrpay/pkg/storage/postgres/transaction"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var transferColumns = []string{
	"id", "user_id", "user_name", "user_phone", "amount", "currency", "note",
	"sender_name", "sender_phone", "status", "payment_option", "created_at",
}

type TransferRepository struct {
	db        *postgres.Postgres
	txManager transaction.Manager
}

func NewTransferRepository(db *postgres.Postgres, txManager transaction.Manager) *TransferRepository {
	return &TransferRepository{db: db, txManager: txManager}
}

// Create stores the transfer together with its ledger entry. The cash-out code is
// never persisted here.
func (r *TransferRepository) Create(
	ctx context.Context,
	transfer *entity.Transfer,
	txn *entity.Transaction,
) error {
	const op = "repository.transfer.Create"

	return r.txManager.ExecuteInTransaction(ctx, "CreateTransfer", func(tx postgres.QueryExecuter) error {
		query := r.db.Builder.Insert("transfers").
			Columns(transferColumns...).
			Values(
				transfer.ID,
				transfer.UserID,
				transfer.UserName,
				transfer.UserPhone,
				transfer.Amount,
				transfer.Currency,
				transfer.Note,
				transfer.SenderName,
				transfer.SenderPhone,
				string(transfer.Status),
				string(transfer.Option),
				transfer.CreatedAt,
			)

		sql, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("%s: building query: %w", op, err)
		}
		if _, err = tx.Exec(ctx, sql, args...); err != nil {
			return transaction.HandleError("CreateTransfer", "insert transfer", err)
		}

		if err = insertTransaction(ctx, r.db, tx, txn); err != nil {
			return transaction.HandleError("CreateTransfer", "append ledger", err)
		}
		return nil
	})
}

func (r *TransferRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Transfer, error) {
	const op = "repository.transfer.GetByID"

	query := r.db.Builder.Select(transferColumns...).
		From("transfers").
		Where(squirrel.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: building query: %w", op, err)
	}

	t := &entity.Transfer{}
	var status, option string
	err = r.db.Pool.QueryRow(ctx, sql, args...).Scan(
		&t.ID,
		&t.UserID,
		&t.UserName,
		&t.UserPhone,
		&t.Amount,
		&t.Currency,
		&t.Note,
		&t.SenderName,
		&t.SenderPhone,
		&status,
		&option,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
		}
		return nil, fmt.Errorf("%s: query row: %w", op, err)
	}
	t.Status = entity.TransferStatus(status)
	t.Option = entity.Channel(option)
	return t, nil
}
