package web

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rowforge/rowforge/internal/config"
	"github.com/rowforge/rowforge/internal/core"
	"github.com/rowforge/rowforge/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			RequestTimeout: 30 * time.Second,
		},
		Run: config.RunConfig{
			MaxFileSize: 1 << 20,
			MaxDatasets: 5,
			MaxRows:     1000,
			PreviewRows: 10,
			Timeout:     30 * time.Second,
		},
		Rate: config.RateLimitConfig{Enabled: false},
	}
}

// testServer builds a server without a database. Only routes that never
// touch the store may be exercised against it.
func testServer(cfg *config.Config) *Server {
	service := core.NewService(core.Limits{
		MaxDatasets: cfg.Run.MaxDatasets,
		MaxRows:     cfg.Run.MaxRows,
		PreviewRows: cfg.Run.PreviewRows,
	}, core.NewRunLimiter(2, time.Second))
	return NewServer(service, store.New(nil), cfg)
}

// diffForm builds a multipart body with before/after CSV files.
func diffForm(t *testing.T, keyColumn, beforeCSV, afterCSV string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if keyColumn != "" {
		if err := w.WriteField("keyColumn", keyColumn); err != nil {
			t.Fatal(err)
		}
	}
	for field, csv := range map[string]string{"before": beforeCSV, "after": afterCSV} {
		if csv == "" {
			continue
		}
		fw, err := w.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(csv)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestHealthz(t *testing.T) {
	srv := testServer(testConfig())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want ok", body["status"])
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := testServer(testConfig())

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("Content-Security-Policy missing")
	}
}

func TestDiffEndpoint(t *testing.T) {
	srv := testServer(testConfig())

	body, contentType := diffForm(t, "SKU",
		"SKU,Qty\nA1,10\nB2,5\n",
		"SKU,Qty\nA1,8\nB2,5\n",
	)
	req := httptest.NewRequest("POST", "/api/diff", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var result core.DiffResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Summary.RowsAffected != 1 || result.Summary.CellsModified != 1 {
		t.Errorf("summary = %+v, want one modified cell in one row", result.Summary)
	}
	if result.Changes[0].KeyValue != "A1" {
		t.Errorf("changed key = %q, want A1", result.Changes[0].KeyValue)
	}
}

func TestDiffEndpointMissingKeyColumn(t *testing.T) {
	srv := testServer(testConfig())

	body, contentType := diffForm(t, "", "SKU\nA1\n", "SKU\nA1\n")
	req := httptest.NewRequest("POST", "/api/diff", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != core.CodeDiffKeyMissing {
		t.Errorf("code = %q, want %s", resp.Code, core.CodeDiffKeyMissing)
	}
}

func TestDiffEndpointMissingFile(t *testing.T) {
	srv := testServer(testConfig())

	body, contentType := diffForm(t, "SKU", "SKU\nA1\n", "")
	req := httptest.NewRequest("POST", "/api/diff", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestWorkflowIDValidation(t *testing.T) {
	srv := testServer(testConfig())

	req := httptest.NewRequest("POST", "/api/workflows/not-a-uuid/run", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != "REQ002" {
		t.Errorf("code = %q, want REQ002", resp.Code)
	}
}

func TestAPIKeyRequiredOnAPIRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{
		RequireAPIKey: true,
		APIKeys:       []string{"sekrit"},
	}
	srv := testServer(cfg)

	// Without a key.
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("POST", "/api/diff", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 without key", rec.Code)
	}

	// Health stays open for probes.
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200 without key", rec.Code)
	}

	// With the key, the request reaches the handler.
	body, contentType := diffForm(t, "SKU", "SKU\nA1\n", "SKU\nA1\n")
	req := httptest.NewRequest("POST", "/api/diff", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-Key", "sekrit")

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 with valid key", rec.Code)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"FILE001", http.StatusRequestEntityTooLarge},
		{"FILE002", http.StatusUnprocessableEntity},
		{"REQ001", http.StatusNotFound},
		{"DB004", http.StatusServiceUnavailable},
		{"SYS001", http.StatusInternalServerError},
		{"CFG001", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if got := statusForError(nil, tt.code); got != tt.want {
			t.Errorf("statusForError(%s) = %d, want %d", tt.code, got, tt.want)
		}
	}

	if got := statusForError(core.ErrTooManyRuns, "SYS001"); got != http.StatusTooManyRequests {
		t.Errorf("limiter exhaustion should map to 429, got %d", got)
	}
}

// stepsForm builds a multipart body with source/target CSV files plus the
// keyColumn and steps fields.
func stepsForm(t *testing.T, keyColumn, stepsJSON, sourceCSV, targetCSV string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for field, value := range map[string]string{"keyColumn": keyColumn, "steps": stepsJSON} {
		if value == "" {
			continue
		}
		if err := w.WriteField(field, value); err != nil {
			t.Fatal(err)
		}
	}
	for field, csv := range map[string]string{"source": sourceCSV, "target": targetCSV} {
		fw, err := w.CreateFormFile(field, field+".csv")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(csv)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, w.FormDataContentType()
}

func TestApplyStepsEndpoint(t *testing.T) {
	srv := testServer(testConfig())

	steps := `[{"id":"s1","name":"deduct sales","actions":[{"type":"decrement","targetColumn":"Stock","sourceColumn":"Sold"}]}]`
	body, contentType := stepsForm(t, "SKU", steps,
		"SKU,Sold\nA1,3\n",
		"SKU,Stock\nA1,10\nB2,5\n",
	)
	req := httptest.NewRequest("POST", "/api/steps/apply", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var outcome core.StepOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("body: %v", err)
	}

	if outcome.Diff.Summary.CellsModified != 1 {
		t.Fatalf("cells modified = %d, want 1", outcome.Diff.Summary.CellsModified)
	}
	cell := outcome.Diff.Changes[0].Cells[0]
	if cell.StepName != "deduct sales" || cell.StepID != "s1" {
		t.Errorf("attribution = %q/%q, want s1/deduct sales", cell.StepID, cell.StepName)
	}
	if cell.Delta == nil || *cell.Delta != -3 {
		t.Errorf("delta = %v, want -3", cell.Delta)
	}
	if got := outcome.Modified.Rows[0].Get("Stock").String(); got != "7" {
		t.Errorf("modified A1 stock = %q, want 7", got)
	}
	if got := outcome.Modified.Rows[1].Get("Stock").String(); got != "5" {
		t.Errorf("modified B2 stock = %q, want untouched 5", got)
	}
}

func TestApplyStepsEndpointMissingFields(t *testing.T) {
	srv := testServer(testConfig())

	tests := []struct {
		name       string
		keyColumn  string
		steps      string
		wantStatus int
		wantCode   string
	}{
		{"no key column", "", `[]`, http.StatusBadRequest, "CFG001"},
		{"no steps", "SKU", "", http.StatusUnprocessableEntity, "FILE002"},
		{"bad steps JSON", "SKU", `{not json`, http.StatusUnprocessableEntity, "FILE002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := stepsForm(t, tt.keyColumn, tt.steps,
				"SKU,Sold\nA1,3\n",
				"SKU,Stock\nA1,10\n",
			)
			req := httptest.NewRequest("POST", "/api/steps/apply", body)
			req.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("body: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}
