package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// ErrorCode returns the domain error code carried by err, or UNKNOWN
// when err is not a domain error.
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return "UNKNOWN"
}

// IsCode reports whether err carries the given domain error code
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrValidation          = NewDomainError("VALIDATION", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONFLICT", "Resource was modified by another process")
	ErrInsufficientStock   = NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock available")
	ErrOverRelease         = NewDomainError("OVER_RELEASE", "Release exceeds reserved quantity")
	ErrLimitExceeded       = NewDomainError("LIMIT_EXCEEDED", "Counter limit exceeded")
	ErrUpstreamUnavailable = NewDomainError("UPSTREAM_UNAVAILABLE", "Upstream dependency unavailable")
	ErrUnknown             = NewDomainError("UNKNOWN", "Outcome indeterminate")
)
