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

var paymentColumns = []string{
	"id", "vendor_id", "amount", "currency", "description", "status", "channel",
	"charge_ref", "payment_url", "qr_code", "created_at", "expires_at", "completed_at",
}

type PaymentRepository struct {
	db        *postgres.Postgres
	txManager transaction.Manager
}

func NewPaymentRepository(db *postgres.Postgres, txManager transaction.Manager) *PaymentRepository {
	return &PaymentRepository{db: db, txManager: txManager}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	const op = "repository.payment.Create"

	query := r.db.Builder.Insert("payments").
		Columns(paymentColumns...).
		Values(
			payment.ID,
			payment.VendorID,
			payment.Amount,
			payment.Currency,
			payment.Description,
			string(payment.Status),
			string(payment.Channel),
			payment.ChargeRef,
			payment.PaymentURL,
			payment.QRCode,
			payment.CreatedAt,
			payment.ExpiresAt,
			payment.CompletedAt,
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

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	const op = "repository.payment.GetByID"

	payment, err := r.getOne(ctx, r.db.Pool, id, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payment, nil
}

// Expire flips a pending payment to expired. A payment already past pending yields
// ErrAlreadyFinalized so the caller can reload the winner's state.
func (r *PaymentRepository) Expire(ctx context.Context, id uuid.UUID) error {
	const op = "repository.payment.Expire"

	query := r.db.Builder.Update("payments").
		Set("status", string(entity.PaymentExpired)).
		Where(squirrel.Eq{"id": id, "status": string(entity.PaymentPending)})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("%s: building query: %w", op, err)
	}

	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: exec: %w", op, mapError(err))
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err = r.getOne(ctx, r.db.Pool, id, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w", op, entity.ErrAlreadyFinalized)
}

// Complete moves a pending payment to completed and appends its ledger entry in one
// transaction. The pending row is locked first so two completions cannot both succeed.
func (r *PaymentRepository) Complete(
	ctx context.Context,
	payment *entity.Payment,
	txn *entity.Transaction,
) error {
	const op = "repository.payment.Complete"

	return r.txManager.ExecuteInTransaction(ctx, "CompletePayment", func(tx postgres.QueryExecuter) error {
		current, err := r.getOne(ctx, tx, payment.ID, true)
		if err != nil {
			return transaction.HandleError("CompletePayment", "lock payment", err)
		}
		if current.Status != entity.PaymentPending {
			return transaction.HandleError("CompletePayment", "check status", entity.ErrAlreadyFinalized)
		}

		query := r.db.Builder.Update("payments").
			Set("status", string(payment.Status)).
			Set("channel", string(payment.Channel)).
			Set("charge_ref", payment.ChargeRef).
			Set("completed_at", payment.CompletedAt).
			Where(squirrel.Eq{"id": payment.ID, "status": string(entity.PaymentPending)})

		sql, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("%s: building query: %w", op, err)
		}
		if _, err = tx.Exec(ctx, sql, args...); err != nil {
			return transaction.HandleError("CompletePayment", "update payment", err)
		}

		if err = insertTransaction(ctx, r.db, tx, txn); err != nil {
			return transaction.HandleError("CompletePayment", "append ledger", err)
		}
		return nil
	})
}

func (r *PaymentRepository) getOne(
	ctx context.Context,
	q postgres.QueryExecuter,
	id uuid.UUID,
	forUpdate bool,
) (*entity.Payment, error) {
	query := r.db.Builder.Select(paymentColumns...).
		From("payments").
		Where(squirrel.Eq{"id": id})
	if forUpdate {
		query = query.Suffix("FOR UPDATE")
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	p := &entity.Payment{}
	var status, channel string
	err = q.QueryRow(ctx, sql, args...).Scan(
		&p.ID,
		&p.VendorID,
		&p.Amount,
		&p.Currency,
		&p.Description,
		&status,
		&channel,
		&p.ChargeRef,
		&p.PaymentURL,
		&p.QRCode,
		&p.CreatedAt,
		&p.ExpiresAt,
		&p.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("query row: %w", err)
	}
	p.Status = entity.PaymentStatus(status)
	p.Channel = entity.Channel(channel)
	return p, nil
}
