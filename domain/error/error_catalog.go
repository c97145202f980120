package error

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Error codes for different categories
const (
	// Authentication Errors (1xxx)
	ErrCodeInvalidCredentials ErrorCode = "AUTH_1001"
	ErrCodeAuthExpired        ErrorCode = "AUTH_1004"
	ErrCodeNotAuthenticated   ErrorCode = "AUTH_1009"

	// Validation Errors (2xxx)
	ErrCodeInvalidInput ErrorCode = "VALID_2005"

	// Transport Errors (5xxx)
	ErrCodeNetwork ErrorCode = "NET_5001"
	ErrCodeAPI     ErrorCode = "API_5002"
	ErrCodeDecode  ErrorCode = "API_5003"

	// Client Errors (6xxx)
	ErrCodeTokenStore    ErrorCode = "CLIENT_6001"
	ErrCodeConfiguration ErrorCode = "CLIENT_6003"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so sentinel values work
// with errors.Is even when a fresh instance wraps a cause.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Coded is implemented by error types outside this package that map to a
// catalog code.
type Coded interface {
	ErrorCode() ErrorCode
}

// CodeOf returns the code of the first AppError or Coded error in the chain,
// or "" if none.
func CodeOf(err error) ErrorCode {
	for ; err != nil; err = errors.Unwrap(err) {
		switch e := err.(type) {
		case *AppError:
			return e.Code
		case Coded:
			return e.ErrorCode()
		}
	}
	return ""
}
