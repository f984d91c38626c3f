// Package pgx implements store.GraphStore on PostgreSQL. Identity
// uniqueness is enforced by database constraints; concurrent upserts of the
// same key are resolved by the ON CONFLICT primitive, never by adapter-side
// locking.
package pgx

import (
	"context"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage is the PostgreSQL-backed graph store. It is safe for
// concurrent use; every connection-pool handle satisfying pgxIConn works.
type GraphDBStorage struct {
	conn pgxIConn
}

// NewGraphDBStorageWithConnection wraps an existing database connection or
// pool.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}
