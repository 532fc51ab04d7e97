package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rpggio/arcview/internal/domain/hierarchy"
	"github.com/rpggio/arcview/internal/domain/project"
	"github.com/rpggio/arcview/internal/domain/session"
	"github.com/rpggio/arcview/internal/domain/sherd"
)

// Error codes of the JSON error body.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeFetch      = "FETCH_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeBadRequest = "BAD_REQUEST"
	CodeInternal   = "INTERNAL_ERROR"
)

// ErrorBody is the JSON body of every non-2xx API response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error ErrorBody `json:"error"`
}

// classify maps domain errors to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, sherd.ErrTooManyDiagnostics):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, session.ErrInvalidInput):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, sherd.ErrFetch), errors.Is(err, hierarchy.ErrFetch), errors.Is(err, project.ErrFetch):
		return http.StatusBadGateway, CodeFetch
	case errors.Is(err, sherd.ErrRecordNotFound), errors.Is(err, hierarchy.ErrRowNotFound):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, errorResponse{Error: ErrorBody{Code: code, Message: err.Error()}})
}
