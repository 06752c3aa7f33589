package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rowforge/rowforge/internal/core"
	"github.com/rowforge/rowforge/internal/logging"
	"github.com/rowforge/rowforge/internal/parse"
	"github.com/rowforge/rowforge/internal/store"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// workflowRequest is the JSON body for creating or updating a workflow.
type workflowRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Config      json.RawMessage `json:"config"`
}

func (s *Server) handleListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := s.store.ListWorkflows(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, workflows)
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	req, cfg, err := decodeWorkflowRequest(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	wf, err := s.store.CreateWorkflow(r.Context(), req.Name, req.Description, cfg)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("workflow created", "workflow_id", wf.ID, "name", wf.Name)
	writeJSON(w, r, http.StatusCreated, wf)
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := workflowID(w, r)
	if !ok {
		return
	}

	wf, err := s.store.GetWorkflow(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, wf)
}

func (s *Server) handleUpdateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := workflowID(w, r)
	if !ok {
		return
	}

	req, cfg, err := decodeWorkflowRequest(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	wf, err := s.store.UpdateWorkflow(r.Context(), id, req.Name, req.Description, cfg)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, wf)
}

func (s *Server) handleDeleteWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := workflowID(w, r)
	if !ok {
		return
	}

	deleted, err := s.store.DeleteWorkflow(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if deleted == 0 {
		respondError(w, r, pgx.ErrNoRows)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRunWorkflow executes a stored workflow against uploaded CSV files.
// Each multipart file field is named after the dataset slot it fills. The
// run outcome is recorded in the workflow's history either way.
func (s *Server) handleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := workflowID(w, r)
	if !ok {
		return
	}

	wf, err := s.store.GetWorkflow(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	datasets, err := s.parseUploadedDatasets(w, r, wf.Config.Datasets)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Run.Timeout)
	defer cancel()

	start := time.Now()
	result, err := s.service.Run(ctx, wf.Config, datasets)
	duration := time.Since(start).Milliseconds()

	run := &store.Run{WorkflowID: id, Duration: duration}
	if err != nil {
		run.Status = store.RunFailed
		run.Error = err.Error()
	} else {
		run.Status = store.RunCompleted
		run.RowCount = len(result.Result.Rows)
		run.WarningCount = len(result.Warnings)
	}
	if recErr := s.store.RecordRun(r.Context(), run); recErr != nil {
		logging.FromContext(r.Context()).Error("record run failed", "workflow_id", id, "error", recErr)
	}

	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("workflow run completed",
		"workflow_id", id,
		"rows", run.RowCount,
		"warnings", run.WarningCount,
		"duration_ms", duration,
	)
	writeJSON(w, r, http.StatusOK, result)
}

// handlePreviewWorkflow runs the workflow and returns a truncated result.
// Previews are not recorded in run history.
func (s *Server) handlePreviewWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := workflowID(w, r)
	if !ok {
		return
	}

	wf, err := s.store.GetWorkflow(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	datasets, err := s.parseUploadedDatasets(w, r, wf.Config.Datasets)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Run.Timeout)
	defer cancel()

	result, err := s.service.Preview(ctx, wf.Config, datasets)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// validateResponse reports all configuration problems found, not just the
// first, so the caller can fix a workflow in one pass.
type validateResponse struct {
	Valid    bool                     `json:"valid"`
	Problems []core.ValidationProblem `json:"problems"`
}

func (s *Server) handleValidateWorkflow(w http.ResponseWriter, r *http.Request) {
	id, ok := workflowID(w, r)
	if !ok {
		return
	}

	wf, err := s.store.GetWorkflow(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	datasets, err := s.parseUploadedDatasets(w, r, wf.Config.Datasets)
	if err != nil {
		respondError(w, r, err)
		return
	}

	problems := core.ValidateWorkflow(datasets, wf.Config.KeyColumns, wf.Config.Join, wf.Config.OutputColumns)
	writeJSON(w, r, http.StatusOK, validateResponse{
		Valid:    len(problems) == 0,
		Problems: problems,
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id, ok := workflowID(w, r)
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	runs, err := s.store.ListRuns(r.Context(), id, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, runs)
}

// handleDiff compares two uploaded versions of a table. The multipart form
// carries the files under "before" and "after" plus a "keyColumn" field.
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	form, err := s.readMultipart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	keyColumn := form.Value("keyColumn")
	if keyColumn == "" {
		respondError(w, r, &core.ConfigError{
			Code:    core.CodeDiffKeyMissing,
			Message: "keyColumn form field is required",
		})
		return
	}

	before, err := form.Dataset("before")
	if err != nil {
		respondError(w, r, err)
		return
	}
	after, err := form.Dataset("after")
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Run.Timeout)
	defer cancel()

	result, err := s.service.CompareDatasets(ctx, before, after, keyColumn)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, result)
}

// handleApplySteps runs condition/action steps from an uploaded source table
// against an uploaded target table. The multipart form carries the files
// under "source" and "target", a "keyColumn" field, and a "steps" field
// holding the step definitions as JSON. The response pairs the modified
// target with a diff attributing every change to its step.
func (s *Server) handleApplySteps(w http.ResponseWriter, r *http.Request) {
	form, err := s.readMultipart(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	keyColumn := form.Value("keyColumn")
	if keyColumn == "" {
		respondError(w, r, &core.ConfigError{
			Code:    core.CodeMissingKeyMapping,
			Message: "keyColumn form field is required",
		})
		return
	}

	stepsRaw := form.Value("steps")
	if stepsRaw == "" {
		respondError(w, r, &core.ParseError{Message: "steps form field is required", Row: -1})
		return
	}
	var steps []core.Step
	if err := json.Unmarshal([]byte(stepsRaw), &steps); err != nil {
		respondError(w, r, &core.ParseError{Message: "invalid steps JSON: " + err.Error(), Row: -1})
		return
	}

	source, err := form.Dataset("source")
	if err != nil {
		respondError(w, r, err)
		return
	}
	target, err := form.Dataset("target")
	if err != nil {
		respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Run.Timeout)
	defer cancel()

	outcome, err := s.service.RunSteps(ctx, source, target, keyColumn, steps)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("steps applied",
		"steps", len(steps),
		"cells_modified", outcome.Diff.Summary.CellsModified,
		"warnings", len(outcome.Diff.Warnings),
	)
	writeJSON(w, r, http.StatusOK, outcome)
}

// workflowID extracts and parses the {workflowID} URL parameter, writing a
// 400 response itself when the value is not a UUID.
func workflowID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "workflowID")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeJSON(w, r, http.StatusBadRequest, ErrorResponse{
			Error: fmt.Sprintf("invalid workflow id %q", raw),
			Code:  "REQ002",
		})
		return uuid.Nil, false
	}
	return id, true
}

// decodeWorkflowRequest parses a create/update body and its embedded
// workflow configuration.
func decodeWorkflowRequest(r *http.Request) (*workflowRequest, *core.WorkflowConfig, error) {
	var req workflowRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		return nil, nil, &core.ParseError{Message: "invalid JSON body: " + err.Error(), Row: -1}
	}
	if req.Name == "" {
		return nil, nil, &core.ParseError{Message: "workflow name is required", Row: -1}
	}
	if len(req.Config) == 0 {
		return nil, nil, &core.ParseError{Message: "workflow config is required", Row: -1}
	}

	cfg, err := core.DecodeWorkflowConfig(req.Config)
	if err != nil {
		return nil, nil, &core.ParseError{Message: "invalid workflow config: " + err.Error(), Row: -1}
	}
	return &req, cfg, nil
}

// uploadForm wraps a parsed multipart form with dataset extraction.
type uploadForm struct {
	r           *http.Request
	maxFileSize int64
}

// readMultipart bounds and parses the request's multipart form. The total
// body is capped at one file limit per allowed dataset plus form overhead.
func (s *Server) readMultipart(w http.ResponseWriter, r *http.Request) (*uploadForm, error) {
	maxBody := s.cfg.Run.MaxFileSize*int64(s.cfg.Run.MaxDatasets) + 1<<20
	r.Body = http.MaxBytesReader(w, r.Body, maxBody)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			return nil, fmt.Errorf("file too large: request body exceeds %d bytes", maxBody)
		}
		return nil, &core.ParseError{Message: "invalid multipart form: " + err.Error(), Row: -1}
	}
	return &uploadForm{r: r, maxFileSize: s.cfg.Run.MaxFileSize}, nil
}

// Value returns a form field value.
func (f *uploadForm) Value(name string) string {
	return f.r.FormValue(name)
}

// Dataset reads the file uploaded under field and infers its schema.
func (f *uploadForm) Dataset(field string) (*core.Dataset, error) {
	file, header, err := f.r.FormFile(field)
	if err != nil {
		return nil, &core.ParseError{Message: fmt.Sprintf("missing file %q", field), Row: -1}
	}
	defer file.Close()

	if header.Size > f.maxFileSize {
		return nil, fmt.Errorf("file too large: %q is %d bytes, limit is %d", field, header.Size, f.maxFileSize)
	}

	data, err := io.ReadAll(io.LimitReader(file, f.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", field, err)
	}
	if int64(len(data)) > f.maxFileSize {
		return nil, fmt.Errorf("file too large: %q exceeds %d bytes", field, f.maxFileSize)
	}

	records, err := parse.Records(data)
	if err != nil {
		return nil, &core.ParseError{Message: err.Error(), Row: -1}
	}
	return core.InferDataset(field, records, 0)
}

// parseUploadedDatasets reads one file per dataset slot the workflow
// declares, in declaration order. Dataset order is significant: the first
// dataset anchors left joins, the last anchors right joins.
func (s *Server) parseUploadedDatasets(w http.ResponseWriter, r *http.Request, refs []core.DatasetRef) ([]*core.Dataset, error) {
	form, err := s.readMultipart(w, r)
	if err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		return nil, &core.ConfigError{
			Code:    core.CodeNoDatasets,
			Message: "workflow declares no datasets",
		}
	}

	datasets := make([]*core.Dataset, 0, len(refs))
	for _, ref := range refs {
		ds, err := form.Dataset(ref.ID)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}
