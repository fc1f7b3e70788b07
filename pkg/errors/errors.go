package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	// Fetch and run control
	ErrorTypeTransientFetch ErrorType = "transient_fetch"
	ErrorTypeHardAbort      ErrorType = "hard_abort"

	// Reconciliation
	ErrorTypeSetupConflict   ErrorType = "setup_conflict"
	ErrorTypeSetup           ErrorType = "setup"
	ErrorTypeSyncTransaction ErrorType = "sync_transaction"

	// Transport
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error carries a type alongside the message and the wrapped cause
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Type) + " error"
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around a cause
func Wrap(t ErrorType, err error, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the type of the first typed error in the chain
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether any typed error in the chain has the given type
func IsType(err error, t ErrorType) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == t {
			return true
		}
		err = e.Err
	}
	return false
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeTransientFetch:
		return true
	default:
		return false
	}
}

// FromStatusCode classifies a non-2xx HTTP response
func FromStatusCode(statusCode int, message string) *Error {
	t := ErrorTypeUnknown
	switch {
	case statusCode == 429:
		t = ErrorTypeRateLimit
	case statusCode == 404:
		t = ErrorTypeNotFound
	case statusCode >= 500:
		t = ErrorTypeServerError
	}
	return &Error{Type: t, Message: message, Code: statusCode}
}
