package apperrors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates the requestor does not own the target resource.
var ErrForbidden = errors.New("permission denied")

// ErrUnauthorized indicates the caller identity could not be established.
var ErrUnauthorized = errors.New("unauthorized")

// ErrInsufficientBalance indicates an expense would drive the owner's balance below zero.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrBusy indicates the owner's balance lock could not be acquired in time.
// Callers may retry.
var ErrBusy = errors.New("ledger busy, retry later")

// ErrIntegrity indicates the stored ledger violates a structural invariant
// (missing or duplicated balance row). It is never recoverable by retrying.
var ErrIntegrity = errors.New("ledger integrity violation")

// ErrBalanceDrift indicates the stored balance no longer equals the sum of the
// owner's transactions. It matches ErrIntegrity with errors.Is.
var ErrBalanceDrift = fmt.Errorf("%w: balance drifted from transactions", ErrIntegrity)

// ErrInternal is a generic internal failure.
var ErrInternal = errors.New("internal error")

// AppError carries an HTTP-ish status code together with the underlying cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError wraps err with a code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ValidationError reports field level problems. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a problem for field, keeping the first message seen.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
