package dto

import "net/http"

// Error kinds surfaced to API callers. These match the codes carried by
// domain errors so the handler layer never rewrites them.
const (
	// ErrCodeNotFound is used when a cell is missing or soft-deleted
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyExists is used when creating a cell for an existing pair
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
	// ErrCodeValidation is used for malformed input
	ErrCodeValidation = "VALIDATION"
	// ErrCodeInsufficientStock is used when available stock cannot cover a request
	ErrCodeInsufficientStock = "INSUFFICIENT_STOCK"
	// ErrCodeOverRelease is used when a release or shipment exceeds reserved stock
	ErrCodeOverRelease = "OVER_RELEASE"
	// ErrCodeLimitExceeded is used when counter arithmetic would overflow
	ErrCodeLimitExceeded = "LIMIT_EXCEEDED"
	// ErrCodeConflict is used when optimistic-lock retries are exhausted
	ErrCodeConflict = "CONFLICT"
	// ErrCodeUnknown is used when a commit outcome is indeterminate
	ErrCodeUnknown = "UNKNOWN"
	// ErrCodeUpstreamUnavailable is used when the database or broker is unreachable
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeInsufficientStock:   http.StatusBadRequest,
	ErrCodeOverRelease:         http.StatusBadRequest,
	ErrCodeLimitExceeded:       http.StatusBadRequest,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeUnknown:             http.StatusInternalServerError,
	ErrCodeUpstreamUnavailable: http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unrecognized codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
