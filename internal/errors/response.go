package errors

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// ErrorDetail is the error body exposed over HTTP.
type ErrorDetail struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ErrorResponse is the standard error envelope for all endpoints.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// NewErrorResponse converts any error into the HTTP envelope. Hints take
// precedence over raw error strings so internals never leak to clients.
func NewErrorResponse(err error) *ErrorResponse {
	detail := ErrorDetail{Message: "An unexpected error occurred"}

	var internal *InternalError
	if errors.As(err, &internal) {
		if internal.Hint() != "" {
			detail.Message = internal.Hint()
		} else if internal.mark != nil {
			detail.Message = internal.mark.Error()
		}
		detail.Details = internal.ReportableDetails()
	}

	return &ErrorResponse{Success: false, Error: detail}
}

// HTTPStatusFromErr maps a marked error to an HTTP status code.
func HTTPStatusFromErr(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	case IsPermissionDenied(err):
		return http.StatusForbidden
	case IsDatabase(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidOperation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
