package shared

import (
	"errors"
	"fmt"
)

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

// NewDomainErrorf creates a new domain error with a formatted message
func NewDomainErrorf(code, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// IsDomainError reports whether err is a DomainError with the given code.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// IsNotFound reports whether err means the resource does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || IsDomainError(err, "NOT_FOUND")
}

// IsAlreadyExists reports whether err means a uniqueness conflict
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists) || IsDomainError(err, "ALREADY_EXISTS")
}

// IsConcurrencyConflict reports whether err means an optimistic lock failure
func IsConcurrencyConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict) || IsDomainError(err, "CONCURRENCY_CONFLICT")
}
