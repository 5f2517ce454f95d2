package dto

import (
	"net/http"
	"strings"
)

// Error codes used directly by the HTTP layer. Domain errors carry
// their own codes and are mapped through GetHTTPStatus.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodePayloadSize  = "PAYLOAD_TOO_LARGE"
)

// errorCodeHTTPStatus maps error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodePayloadSize:  http.StatusRequestEntityTooLarge,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"ACCOUNT_DISABLED":    http.StatusForbidden,
	"STORE_SUSPENDED":     http.StatusForbidden,

	ErrCodeNotFound:  http.StatusNotFound,
	"USER_NOT_FOUND": http.StatusNotFound,
	"INVALID_KIND":   http.StatusNotFound,

	"ALREADY_EXISTS":       http.StatusConflict,
	"CONFLICT":             http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"EMAIL_TAKEN":          http.StatusConflict,
	"SLUG_TAKEN":           http.StatusConflict,
	"ALREADY_MEMBER":       http.StatusConflict,

	"INVALID_STATE": http.StatusUnprocessableEntity,

	"TRANSIENT": http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Validation-style codes default to 400, everything else to 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
