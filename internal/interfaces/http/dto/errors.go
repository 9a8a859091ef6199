package dto

import "net/http"

// Error codes shared between the transport layer and domain errors. Domain
// error codes are surfaced verbatim to API clients; this map decides the
// HTTP status they travel with.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeValidation:   http.StatusBadRequest,

	// Missing resources
	ErrCodeNotFound:     http.StatusNotFound,
	"RECEIPT_NOT_FOUND": http.StatusNotFound,
	"REQUEST_NOT_FOUND": http.StatusNotFound,

	// Conflicts
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Malformed input
	"INVALID_INPUT":  http.StatusBadRequest,
	"INVALID_AMOUNT": http.StatusBadRequest,
	"INVALID_STATUS": http.StatusBadRequest,
	"INVALID_USER":   http.StatusBadRequest,
	"EMPTY_BATCH":    http.StatusBadRequest,

	// Business rule violations
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"INSUFFICIENT_BALANCE": http.StatusUnprocessableEntity,

	// Number allocation exhausted its retry budget
	"CODE_GENERATION_FAILED": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
