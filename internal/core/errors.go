package core

// errors.go defines the two fatal error tiers of the engine.
//
// Configuration errors (missing key mapping, unknown dataset reference) are
// caller bugs: the engine raises them and performs no partial work.
// Parse errors are fatal problems with the raw input shape (no columns,
// header row out of bounds). Everything else - unmatched keys, bad math
// operands, division by zero - is a Warning on the result, never an error.

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError is a fatal workflow-configuration problem.
type ConfigError struct {
	Code    string // Machine-readable code, e.g. CFG001
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// Configuration error codes.
const (
	CodeMissingKeyMapping = "CFG001" // Dataset has no key column mapping
	CodeUnknownKeyColumn  = "CFG002" // Mapped key column not present in dataset
	CodeUnknownDataset    = "CFG003" // Column source references unknown dataset
	CodeUnknownColumn     = "CFG004" // Column source references unknown column
	CodeBadJoinType       = "CFG005" // Unsupported join type
	CodeNoOutputColumns   = "CFG006" // Workflow defines no output columns
	CodeDiffKeyMissing    = "CFG007" // Diff key column absent from a side
	CodeNoDatasets        = "CFG008" // Workflow run received no datasets
	CodeBadMathOp         = "CFG009" // Unsupported math operation
	CodeBadCondition      = "CFG010" // Step condition misconfigured
	CodeBadAction         = "CFG011" // Step action misconfigured
)

func configErrorf(code, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ParseError is a fatal problem with raw tabular input.
type ParseError struct {
	Message string
	Row     int // -1 when no specific row applies
}

func (e *ParseError) Error() string {
	if e.Row >= 0 {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return e.Message
}

func parseErrorf(row int, format string, args ...any) *ParseError {
	return &ParseError{Row: row, Message: fmt.Sprintf(format, args...)}
}

// UserMessage is a user-friendly rendering of an error with a support code.
type UserMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
}

// MapError converts an internal error into a user-facing message.
// Technical detail stays in logs; users get the message plus a code they can
// quote to support.
func MapError(err error) UserMessage {
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return UserMessage{
			Code:    cfgErr.Code,
			Message: cfgErr.Message,
			Action:  "Review the workflow configuration and try again",
		}
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return UserMessage{
			Code:    "FILE002",
			Message: parseErr.Error(),
			Action:  "Check that the file has a header row and at least one column",
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "file too large"):
		return UserMessage{
			Code:    "FILE001",
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
		}
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"):
		return UserMessage{
			Code:    "DB004",
			Message: "Unable to reach the database",
			Action:  "Please try again in a few moments",
		}
	case strings.Contains(msg, "context deadline exceeded"),
		strings.Contains(msg, "timeout"):
		return UserMessage{
			Code:    "DB006",
			Message: "The operation timed out",
			Action:  "Try smaller files or try again later",
		}
	case strings.Contains(msg, "no rows in result set"):
		return UserMessage{
			Code:    "REQ001",
			Message: "The requested record was not found",
			Action:  "Check the identifier and try again",
		}
	}

	return UserMessage{
		Code:    "SYS001",
		Message: "An unexpected error occurred",
		Action:  "Please try again; contact support with code SYS001 if it persists",
	}
}
