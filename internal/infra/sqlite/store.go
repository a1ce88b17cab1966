// Package sqlite implements the user and quiz repositories on a single-file
// SQLite database, for deployments that want persistence without a Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Store holds the shared database handle for both repositories.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file and ensures the schema exists.
// A single connection avoids SQLITE_BUSY under concurrent writes.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL DEFAULT '',
			is_admin INTEGER NOT NULL DEFAULT 0,
			score INTEGER NOT NULL DEFAULT 0,
			latest_quiz_date_ms INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS quizzes (
			date TEXT PRIMARY KEY,
			question TEXT NOT NULL,
			answer INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS quiz_solvers (
			quiz_date TEXT NOT NULL,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			is_correct INTEGER NOT NULL,
			solved_at_ms INTEGER NOT NULL,
			PRIMARY KEY (quiz_date, user_id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_users_score ON users(score DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_quiz_solvers_date_time ON quiz_solvers(quiz_date, solved_at_ms);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
