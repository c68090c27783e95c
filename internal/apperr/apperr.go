package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Code is a stable, machine-readable failure category.
type Code string

const (
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeInvalidInput        Code = "INVALID_INPUT"
	CodeInsufficientBalance Code = "INSUFFICIENT_BALANCE"
	CodeUnauthorized        Code = "UNAUTHORIZED"
	CodeInternal            Code = "INTERNAL"
)

// Error is the domain error carried from services to the HTTP boundary,
// where it is translated to a status code and response body.
type Error struct {
	Code    Code
	Message string

	// Fields holds per-field validation messages for CodeInvalidInput.
	Fields map[string]string

	// Available and Required are populated for CodeInsufficientBalance so
	// clients can display the exact shortfall.
	Available decimal.Decimal
	Required  decimal.Decimal

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// NotFound reports a missing asset, wallet, or other resource.
func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a duplicate resource.
func Conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// InvalidInput reports malformed request data with optional per-field messages.
func InvalidInput(message string, fields map[string]string) *Error {
	return &Error{Code: CodeInvalidInput, Message: message, Fields: fields}
}

// InsufficientBalance reports that a wallet cannot cover the requested amount.
func InsufficientBalance(message string, available, required decimal.Decimal) *Error {
	return &Error{Code: CodeInsufficientBalance, Message: message, Available: available, Required: required}
}

// Unauthorized reports a failed authentication attempt.
func Unauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message}
}

// Internal wraps an unexpected persistence or logic failure.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: "internal error", cause: cause}
}

// CodeOf extracts the Code from err, or CodeInternal if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}
