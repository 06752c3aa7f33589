package core

// service.go is the host-facing entry point around the pure engine. It
// enforces input-size limits and the concurrent-run cap before handing the
// already-parsed datasets to RunWorkflow or Diff. The engine itself stays
// pure; everything stateful lives here.

import (
	"context"
	"fmt"
	"strings"
)

// Limits bounds the inputs accepted for one run. The engine holds all
// datasets in memory for the duration of a call, so the host bounds input
// size here rather than streaming.
type Limits struct {
	MaxDatasets int // Maximum datasets per run
	MaxRows     int // Maximum rows per dataset
	PreviewRows int // Row cap for previews
}

// DefaultLimits are used where the host supplies no configuration.
var DefaultLimits = Limits{
	MaxDatasets: 5,
	MaxRows:     100_000,
	PreviewRows: 10,
}

// Service executes workflow runs and diffs with host-level guardrails.
// A single Service is safe for concurrent use; each run operates on its own
// datasets and result objects.
type Service struct {
	limits  Limits
	limiter *RunLimiter
}

// NewService creates a Service with the given limits and run concurrency.
func NewService(limits Limits, limiter *RunLimiter) *Service {
	if limits.MaxDatasets <= 0 {
		limits.MaxDatasets = DefaultLimits.MaxDatasets
	}
	if limits.MaxRows <= 0 {
		limits.MaxRows = DefaultLimits.MaxRows
	}
	if limits.PreviewRows <= 0 {
		limits.PreviewRows = DefaultLimits.PreviewRows
	}
	if limiter == nil {
		limiter = NewRunLimiter(DefaultMaxConcurrentRuns, DefaultMaxWaitTime)
	}
	return &Service{limits: limits, limiter: limiter}
}

// Limits returns the configured input bounds.
func (s *Service) Limits() Limits { return s.limits }

// Limiter exposes run-slot status for shutdown coordination.
func (s *Service) Limiter() *RunLimiter { return s.limiter }

// Run executes a workflow definition against the supplied datasets.
func (s *Service) Run(ctx context.Context, cfg *WorkflowConfig, datasets []*Dataset) (*RunResult, error) {
	if err := s.checkInputs(datasets); err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return RunWorkflow(datasets, cfg.KeyColumns, cfg.Join, cfg.OutputColumns)
}

// Preview executes the workflow and truncates the result for display.
func (s *Service) Preview(ctx context.Context, cfg *WorkflowConfig, datasets []*Dataset) (*RunResult, error) {
	if err := s.checkInputs(datasets); err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return PreviewWorkflow(datasets, cfg.KeyColumns, cfg.Join, cfg.OutputColumns, s.limits.PreviewRows)
}

// CompareDatasets diffs two versions of a table keyed on keyColumn.
func (s *Service) CompareDatasets(ctx context.Context, before, after *Dataset, keyColumn string) (*DiffResult, error) {
	if err := s.checkInputs([]*Dataset{before, after}); err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	return Diff(before, after, keyColumn)
}

// StepOutcome pairs the modified target dataset with a diff attributing
// every change to the step that caused it.
type StepOutcome struct {
	Modified *Dataset    `json:"modified"`
	Diff     *DiffResult `json:"diff"`
}

// RunSteps applies condition/action steps from source onto target, matched
// by keyColumn, and diffs the outcome.
func (s *Service) RunSteps(ctx context.Context, source, target *Dataset, keyColumn string, steps []Step) (*StepOutcome, error) {
	if err := s.checkInputs([]*Dataset{source, target}); err != nil {
		return nil, err
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	res, err := ApplySteps(source, target, keyColumn, steps)
	if err != nil {
		return nil, err
	}
	return &StepOutcome{
		Modified: res.Modified,
		Diff:     DiffFromChanges(strings.TrimSpace(keyColumn), res.Changes, res.Warnings),
	}, nil
}

// checkInputs enforces dataset and row count limits.
func (s *Service) checkInputs(datasets []*Dataset) error {
	if len(datasets) > s.limits.MaxDatasets {
		return fmt.Errorf("file too large: %d datasets exceeds the limit of %d", len(datasets), s.limits.MaxDatasets)
	}
	for _, ds := range datasets {
		if ds == nil {
			return configErrorf(CodeNoDatasets, "nil dataset supplied")
		}
		if len(ds.Rows) > s.limits.MaxRows {
			return fmt.Errorf("file too large: dataset %q has %d rows, limit is %d", ds.ID, len(ds.Rows), s.limits.MaxRows)
		}
	}
	return nil
}
