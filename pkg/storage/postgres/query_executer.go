package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryExecuter is the subset of pgx shared by the pool and a transaction, so
// repository helpers run unchanged inside or outside ExecuteInTransaction.
type QueryExecuter interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var (
	_ QueryExecuter = (*pgxpool.Pool)(nil)
	_ QueryExecuter = (pgx.Tx)(nil)
)
