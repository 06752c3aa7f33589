package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rowforge/rowforge/internal/core"
)

// Workflow is a persisted merge workflow definition.
type Workflow struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Config      *core.WorkflowConfig `json:"config"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// CreateWorkflow inserts a new workflow definition and returns it with its
// generated ID and timestamps.
func (s *Store) CreateWorkflow(ctx context.Context, name, description string, cfg *core.WorkflowConfig) (*Workflow, error) {
	raw, err := cfg.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode workflow config: %w", err)
	}

	wf := &Workflow{ID: uuid.New(), Name: name, Description: description, Config: cfg}
	err = s.db.QueryRow(ctx, `
		INSERT INTO workflows (id, name, description, config)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		wf.ID, name, description, raw,
	).Scan(&wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create workflow: %w", err)
	}
	return wf, nil
}

// GetWorkflow loads one workflow by ID.
func (s *Store) GetWorkflow(ctx context.Context, id uuid.UUID) (*Workflow, error) {
	wf := &Workflow{ID: id}
	var raw []byte
	err := s.db.QueryRow(ctx, `
		SELECT name, description, config, created_at, updated_at
		FROM workflows WHERE id = $1`, id,
	).Scan(&wf.Name, &wf.Description, &raw, &wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", id, err)
	}

	wf.Config, err = core.DecodeWorkflowConfig(raw)
	if err != nil {
		return nil, fmt.Errorf("decode workflow %s config: %w", id, err)
	}
	return wf, nil
}

// ListWorkflows returns all workflows, most recently updated first.
func (s *Store) ListWorkflows(ctx context.Context) ([]*Workflow, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, config, created_at, updated_at
		FROM workflows ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()

	var workflows []*Workflow
	for rows.Next() {
		wf := &Workflow{}
		var raw []byte
		if err := rows.Scan(&wf.ID, &wf.Name, &wf.Description, &raw, &wf.CreatedAt, &wf.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		wf.Config, err = core.DecodeWorkflowConfig(raw)
		if err != nil {
			return nil, fmt.Errorf("decode workflow %s config: %w", wf.ID, err)
		}
		workflows = append(workflows, wf)
	}
	return workflows, rows.Err()
}

// UpdateWorkflow replaces a workflow's name, description, and config.
func (s *Store) UpdateWorkflow(ctx context.Context, id uuid.UUID, name, description string, cfg *core.WorkflowConfig) (*Workflow, error) {
	raw, err := cfg.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode workflow config: %w", err)
	}

	wf := &Workflow{ID: id, Name: name, Description: description, Config: cfg}
	err = s.db.QueryRow(ctx, `
		UPDATE workflows
		SET name = $2, description = $3, config = $4, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		id, name, description, raw,
	).Scan(&wf.CreatedAt, &wf.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update workflow %s: %w", id, err)
	}
	return wf, nil
}

// DeleteWorkflow removes a workflow and, via cascade, its run history.
// Returns the number of workflows deleted (0 or 1).
func (s *Store) DeleteWorkflow(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete workflow %s: %w", id, err)
	}
	return tag.RowsAffected(), nil
}
