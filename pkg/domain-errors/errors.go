// Package domainerrors carries coded errors across service boundaries.
//
// Services return these so callers (HTTP handlers, tests, retry layers above
// the API) can branch on the failure kind instead of string matching. Stores
// do not use this package directly; they return pkg/platform/sentinel errors
// that services translate.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code tags an error with its domain meaning.
type Code string

const (
	// Registry failure kinds. Every denied or invalid mutation maps to one
	// of these so API clients can distinguish "get your institution
	// verified" from "you are not allowed to touch this record".
	CodeNotAuthorized      Code = "not_authorized"
	CodeNotVerified        Code = "not_verified"
	CodeInvalidRecord      Code = "invalid_record"
	CodeInvalidInstitution Code = "invalid_institution"

	// Surrounding service surface.
	CodeInvalidInput       Code = "invalid_input"
	CodeValidation         Code = "validation_failed"
	CodeInvariantViolation Code = "invariant_violation"
	CodeConflict           Code = "conflict"
	CodeNotFound           Code = "not_found"
	CodeInternal           Code = "internal_error"
)

// Error is the concrete coded error type.
type Error struct {
	Code    Code
	Message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates an underlying error with a code and message while keeping
// the cause reachable through errors.Is/As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return New(code, message)
	}
	return &Error{Code: code, Message: message, err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.err
		de = nil
	}
	return false
}

// CodeOf returns the outermost code, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf returns the outermost coded message, or a generic one.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
