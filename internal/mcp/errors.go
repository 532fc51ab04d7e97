package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/arcview/internal/domain/hierarchy"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/session"
	"github.com/rpggio/arcview/internal/domain/sherd"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var limitErr *sherd.FilterLimitError
	switch {
	case errors.As(err, &limitErr):
		return &APIError{
			Code:         "VALIDATION_ERROR",
			Message:      err.Error(),
			RecoveryHint: fmt.Sprintf("Select at most %d diagnostic types", limitErr.Max),
		}
	case errors.Is(err, sherd.ErrTooManyDiagnostics):
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), RecoveryHint: "Select fewer diagnostic types"}
	case errors.Is(err, sherd.ErrFetch), errors.Is(err, hierarchy.ErrFetch), errors.Is(err, project.ErrFetch):
		return &APIError{Code: "FETCH_ERROR", Message: err.Error(), RecoveryHint: "Retry the request"}
	case errors.Is(err, sherd.ErrRecordNotFound), errors.Is(err, hierarchy.ErrRowNotFound):
		return &APIError{Code: "NOT_FOUND", Message: err.Error(), RecoveryHint: "Use an id from the current rows"}
	case errors.Is(err, session.ErrNoSelection):
		return &APIError{Code: "NO_ROWS", Message: "no rows loaded", RecoveryHint: "Call search_sherds or select_project first"}
	case errors.Is(err, session.ErrSuperseded):
		return &APIError{Code: "SUPERSEDED", Message: err.Error(), RecoveryHint: "Call get_view_state for the latest result"}
	case errors.Is(err, session.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	default:
		return nil
	}
}

// toolError renders err as a tool result with IsError set. Unmapped errors
// become INTERNAL_ERROR.
func toolError(err error, details any) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: "INTERNAL_ERROR", Message: err.Error()}
	}
	apiErr.Details = details

	text, marshalErr := json.Marshal(apiErr)
	if marshalErr != nil {
		text = []byte(apiErr.Error())
	}

	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(text)}},
	}
}
