// Package store persists workflow definitions and run history in PostgreSQL.
//
// The engine itself is stateless per invocation; this package is the only
// place results of a run leave memory, and it stores summaries, not result
// datasets. Workflow configurations are stored as JSONB so the column-source
// union round-trips through its tagged encoding.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store provides access to persisted workflows and runs.
type Store struct {
	db DBTX
}

// New creates a Store over the given database handle.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the store's tables if they do not exist.
// Called once at startup; safe to call repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS workflows (
    id          UUID PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    config      JSONB NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
    id            UUID PRIMARY KEY,
    workflow_id   UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
    status        TEXT NOT NULL,
    row_count     INT NOT NULL DEFAULT 0,
    warning_count INT NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    duration_ms   BIGINT NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_workflow_created
    ON runs (workflow_id, created_at DESC);
`
	if _, err := s.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
