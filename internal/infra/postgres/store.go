// Package postgres implements the user and quiz repositories on a pgx
// connection pool. Schema changes live in the migrations subpackage.
package postgres

import (
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store holds the shared pool for both repositories.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}
