package repository

import (
	"context"
	"fmt"

	"qrpay/pkg/storage/postgres"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS vendors (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL,
		business_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		payment_url   TEXT NOT NULL,
		qr_code       TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS vendors_email_unique_idx ON vendors (LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS users (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		phone       TEXT NOT NULL,
		payment_url TEXT NOT NULL,
		qr_code     TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS users_phone_idx ON users (phone)`,

	`CREATE TABLE IF NOT EXISTS customers (
		id                 UUID PRIMARY KEY,
		phone              TEXT NOT NULL DEFAULT '',
		email              TEXT NOT NULL DEFAULT '',
		name               TEXT NOT NULL DEFAULT '',
		billing_profile_id TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL,
		CHECK (phone <> '' OR email <> '')
	)`,
	`CREATE INDEX IF NOT EXISTS customers_phone_idx ON customers (phone) WHERE phone <> ''`,
	`CREATE INDEX IF NOT EXISTS customers_email_idx ON customers (email) WHERE email <> ''`,

	`CREATE TABLE IF NOT EXISTS customer_instruments (
		customer_id UUID NOT NULL REFERENCES customers (id) ON DELETE CASCADE,
		id          TEXT NOT NULL,
		position    INT NOT NULL,
		brand       TEXT NOT NULL DEFAULT '',
		last4       TEXT NOT NULL DEFAULT '',
		exp_month   INT NOT NULL DEFAULT 0,
		exp_year    INT NOT NULL DEFAULT 0,
		is_default  BOOLEAN NOT NULL DEFAULT FALSE,
		added_at    TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (customer_id, id)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS customer_instruments_one_default_idx
		ON customer_instruments (customer_id) WHERE is_default`,

	`CREATE TABLE IF NOT EXISTS payments (
		id           UUID PRIMARY KEY,
		vendor_id    UUID REFERENCES vendors (id),
		amount       NUMERIC(20, 2) NOT NULL CHECK (amount > 0),
		currency     TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL CHECK (status IN ('pending', 'completed', 'expired')),
		channel      TEXT NOT NULL DEFAULT '',
		charge_ref   TEXT NOT NULL DEFAULT '',
		payment_url  TEXT NOT NULL,
		qr_code      TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ NOT NULL,
		completed_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS payments_vendor_id_idx ON payments (vendor_id)`,

	`CREATE TABLE IF NOT EXISTS transfers (
		id             UUID PRIMARY KEY,
		user_id        UUID NOT NULL REFERENCES users (id),
		user_name      TEXT NOT NULL,
		user_phone     TEXT NOT NULL,
		amount         NUMERIC(20, 2) NOT NULL CHECK (amount > 0),
		currency       TEXT NOT NULL,
		note           TEXT NOT NULL DEFAULT '',
		sender_name    TEXT NOT NULL DEFAULT '',
		sender_phone   TEXT NOT NULL DEFAULT '',
		status         TEXT NOT NULL,
		payment_option TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS transactions (
		id            UUID PRIMARY KEY,
		kind          TEXT NOT NULL,
		payment_id    UUID,
		transfer_id   UUID,
		vendor_id     UUID,
		user_id       UUID,
		customer_id   UUID,
		amount        NUMERIC(20, 2) NOT NULL,
		vendor_amount NUMERIC(20, 2),
		platform_fee  NUMERIC(20, 2),
		currency      TEXT NOT NULL,
		status        TEXT NOT NULL,
		channel       TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		payer_name    TEXT NOT NULL DEFAULT '',
		payer_phone   TEXT NOT NULL DEFAULT '',
		charge_ref    TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS transactions_payment_id_unique_idx
		ON transactions (payment_id) WHERE payment_id IS NOT NULL`,
	`CREATE INDEX IF NOT EXISTS transactions_vendor_id_idx ON transactions (vendor_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS transactions_user_id_idx ON transactions (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS transactions_customer_id_idx ON transactions (customer_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS transactions_created_at_idx ON transactions (created_at DESC)`,
}

// Migrate creates the schema. Every statement is idempotent, so it is safe on every start.
func Migrate(ctx context.Context, db *postgres.Postgres) error {
	const op = "repository.Migrate"

	for i, stmt := range schema {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%s: statement %d: %w", op, i, err)
		}
	}
	return nil
}
