package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rowforge/rowforge/internal/core"
	"github.com/rowforge/rowforge/internal/logging"
)

// ErrorResponse is the JSON body for all error replies.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Action string `json:"action,omitempty"`
}

// respondError maps an internal error to a sanitized JSON response.
// The full error is logged server-side; the client sees the user message
// plus a support code.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := core.MapError(err)
	status := statusForError(err, msg.Code)

	logging.FromContext(r.Context()).Error("request failed",
		"status", status,
		"code", msg.Code,
		"error", err.Error(),
	)

	writeJSON(w, r, status, ErrorResponse{
		Error:  msg.Message,
		Code:   msg.Code,
		Action: msg.Action,
	})
}

// statusForError picks an HTTP status for a mapped error code.
func statusForError(err error, code string) int {
	if errors.Is(err, core.ErrTooManyRuns) {
		return http.StatusTooManyRequests
	}

	switch code {
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "FILE002":
		return http.StatusUnprocessableEntity
	case "REQ001":
		return http.StatusNotFound
	case "DB004", "DB006":
		return http.StatusServiceUnavailable
	case "SYS001":
		return http.StatusInternalServerError
	}
	// CFG* codes are caller mistakes.
	return http.StatusBadRequest
}

// writeJSON encodes v as JSON with the given status. Encoding errors are
// logged because headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode failed", "error", err)
	}
}
