package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is one recorded workflow execution: a summary, not the result data.
type Run struct {
	ID           uuid.UUID `json:"id"`
	WorkflowID   uuid.UUID `json:"workflowId"`
	Status       string    `json:"status"`
	RowCount     int       `json:"rowCount"`
	WarningCount int       `json:"warningCount"`
	Error        string    `json:"error,omitempty"`
	Duration     int64     `json:"durationMs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RecordRun appends one run to a workflow's history.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	err := s.db.QueryRow(ctx, `
		INSERT INTO runs (id, workflow_id, status, row_count, warning_count, error_message, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		run.ID, run.WorkflowID, run.Status, run.RowCount, run.WarningCount, run.Error, run.Duration,
	).Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// ListRuns returns a workflow's run history, newest first, capped at limit.
func (s *Store) ListRuns(ctx context.Context, workflowID uuid.UUID, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, workflow_id, status, row_count, warning_count, error_message, duration_ms, created_at
		FROM runs WHERE workflow_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs for %s: %w", workflowID, err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.WorkflowID, &run.Status, &run.RowCount,
			&run.WarningCount, &run.Error, &run.Duration, &run.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
