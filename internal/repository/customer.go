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

var customerColumns = []string{"id", "phone", "email", "name", "billing_profile_id", "created_at"}

type CustomerRepository struct {
	db        *postgres.Postgres
	txManager transaction.Manager
}

func NewCustomerRepository(db *postgres.Postgres, txManager transaction.Manager) *CustomerRepository {
	return &CustomerRepository{db: db, txManager: txManager}
}

func (r *CustomerRepository) Create(ctx context.Context, customer *entity.Customer) error {
	const op = "repository.customer.Create"

	return r.txManager.ExecuteInTransaction(ctx, "CreateCustomer", func(tx postgres.QueryExecuter) error {
		query := r.db.Builder.Insert("customers").
			Columns(customerColumns...).
			Values(
				customer.ID,
				customer.Phone,
				customer.Email,
				customer.Name,
				customer.BillingProfileID,
				customer.CreatedAt,
			)

		sql, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("%s: building query: %w", op, err)
		}
		if _, err = tx.Exec(ctx, sql, args...); err != nil {
			return transaction.HandleError("CreateCustomer", "insert customer", err)
		}

		if err = r.insertInstruments(ctx, tx, customer); err != nil {
			return transaction.HandleError("CreateCustomer", "insert instruments", err)
		}
		return nil
	})
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Customer, error) {
	return r.getOne(ctx, "repository.customer.GetByID", squirrel.Eq{"id": id})
}

// FindByContact orders by creation time so the earliest matching customer wins.
func (r *CustomerRepository) FindByContact(ctx context.Context, phone, email string) (*entity.Customer, error) {
	const op = "repository.customer.FindByContact"

	match := squirrel.Or{}
	if phone != "" {
		match = append(match, squirrel.Eq{"phone": phone})
	}
	if email != "" {
		match = append(match, squirrel.Eq{"email": email})
	}
	if len(match) == 0 {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrDataNotFound)
	}

	return r.getOne(ctx, op, match)
}

// UpdateInstruments locks the customer row, reloads its instruments, applies mutate and
// rewrites the collection in the same transaction. mutate may run more than once when
// the transaction is retried.
func (r *CustomerRepository) UpdateInstruments(
	ctx context.Context,
	customerID uuid.UUID,
	mutate func(customer *entity.Customer) error,
) (*entity.Customer, error) {
	const op = "repository.customer.UpdateInstruments"

	var updated *entity.Customer
	err := r.txManager.ExecuteInTransaction(ctx, "UpdateInstruments", func(tx postgres.QueryExecuter) error {
		customer, err := r.scanOne(ctx, tx, squirrel.Eq{"id": customerID}, "FOR UPDATE")
		if err != nil {
			return transaction.HandleError("UpdateInstruments", "lock customer", err)
		}
		if customer.Instruments, err = r.listInstruments(ctx, tx, customerID); err != nil {
			return transaction.HandleError("UpdateInstruments", "load instruments", err)
		}

		if err = mutate(customer); err != nil {
			return err
		}

		delSQL, delArgs, err := r.db.Builder.Delete("customer_instruments").
			Where(squirrel.Eq{"customer_id": customerID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("%s: building query: %w", op, err)
		}
		if _, err = tx.Exec(ctx, delSQL, delArgs...); err != nil {
			return transaction.HandleError("UpdateInstruments", "clear instruments", err)
		}

		if err = r.insertInstruments(ctx, tx, customer); err != nil {
			return transaction.HandleError("UpdateInstruments", "insert instruments", err)
		}
		updated = customer
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

func (r *CustomerRepository) insertInstruments(
	ctx context.Context,
	q postgres.QueryExecuter,
	customer *entity.Customer,
) error {
	if len(customer.Instruments) == 0 {
		return nil
	}

	query := r.db.Builder.Insert("customer_instruments").
		Columns("customer_id", "id", "position", "brand", "last4", "exp_month", "exp_year", "is_default", "added_at")
	for i, in := range customer.Instruments {
		query = query.Values(customer.ID, in.ID, i, in.Brand, in.Last4, in.ExpMonth, in.ExpYear, in.IsDefault, in.AddedAt)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("building query: %w", err)
	}
	_, err = q.Exec(ctx, sql, args...)
	return err
}

func (r *CustomerRepository) getOne(ctx context.Context, op string, where squirrel.Sqlizer) (*entity.Customer, error) {
	c, err := r.scanOne(ctx, r.db.Pool, where, "")
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrDataNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.Instruments, err = r.listInstruments(ctx, r.db.Pool, c.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// scanOne reads the earliest customer matching where, without instruments.
func (r *CustomerRepository) scanOne(
	ctx context.Context,
	q postgres.QueryExecuter,
	where squirrel.Sqlizer,
	suffix string,
) (*entity.Customer, error) {
	query := r.db.Builder.Select(customerColumns...).
		From("customers").
		Where(where).
		OrderBy("created_at", "id").
		Limit(1)
	if suffix != "" {
		query = query.Suffix(suffix)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	c := &entity.Customer{}
	err = q.QueryRow(ctx, sql, args...).Scan(
		&c.ID,
		&c.Phone,
		&c.Email,
		&c.Name,
		&c.BillingProfileID,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepository) listInstruments(
	ctx context.Context,
	q postgres.QueryExecuter,
	customerID uuid.UUID,
) ([]*entity.Instrument, error) {
	query := r.db.Builder.Select("id", "brand", "last4", "exp_month", "exp_year", "is_default", "added_at").
		From("customer_instruments").
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("position")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query instruments: %w", err)
	}
	defer rows.Close()

	instruments := make([]*entity.Instrument, 0)
	for rows.Next() {
		in := &entity.Instrument{}
		if err = rows.Scan(&in.ID, &in.Brand, &in.Last4, &in.ExpMonth, &in.ExpYear, &in.IsDefault, &in.AddedAt); err != nil {
			return nil, fmt.Errorf("row scan: %w", err)
		}
		instruments = append(instruments, in)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("rows final error: %w", rows.Err())
	}
	return instruments, nil
}
