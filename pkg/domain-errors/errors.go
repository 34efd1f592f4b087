// Package domainerrors defines the error codes services return to transports.
//
// Stores return sentinel errors (pkg/platform/sentinel); services translate them
// into a coded *Error so handlers can map codes to HTTP statuses without knowing
// which layer failed.
package domainerrors

import (
	"errors"
)

// Code is a stable, machine-readable error identifier that appears in API responses.
type Code string

const (
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_error"
	CodeInvariantViolation Code = "invariant_violation"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"

	// Membership state machine outcomes. AlreadyMember and AlreadyRequested are
	// benign for clients: the requested end state already holds.
	CodeAlreadyMember     Code = "already_member"
	CodeAlreadyRequested  Code = "already_requested"
	CodeInvalidTransition Code = "invalid_transition"
)

// Error carries a code, a user-facing message, and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// From extracts the outermost coded error from a chain.
func From(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether the outermost coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	de, ok := From(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the code of err, or CodeInternal if err carries none. A nil
// error has no code.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	if de, ok := From(err); ok {
		return de.Code
	}
	return CodeInternal
}
