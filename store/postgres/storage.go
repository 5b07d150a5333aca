// Package postgres implements the store contracts on PostgreSQL via pgx.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tokengate/tokengate/store"
)

// DBTX is the subset of pgxpool.Pool the repositories need. pgx.Tx
// satisfies it too, so repositories run unchanged inside a transaction.
type DBTX interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// NewTokenStore returns a pgx-backed store.TokenStore.
func NewTokenStore(db DBTX) store.TokenStore {
	return &TokenRepo{db: db}
}

// NewUserDirectory returns a pgx-backed store.UserDirectory.
func NewUserDirectory(db DBTX) store.UserDirectory {
	return &UserRepo{db: db}
}
