package postgres

import (
	"database/sql"

	"github.com/lib/pq"
)

// Store implements storage.Store on PostgreSQL
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an existing connection pool
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying pool for health checks
func (s *Store) DB() *sql.DB {
	return s.db
}

const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique constraint violation on
// the named index
func isUniqueViolation(err error, constraint string) bool {
	pqErr, ok := err.(*pq.Error)
	return ok && pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
}
