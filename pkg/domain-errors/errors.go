// Package domainerrors defines the error vocabulary shared by services and
// transports. Services wrap infrastructure failures into coded errors;
// handlers translate codes into HTTP responses without inspecting causes.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and logging.
type Code string

const (
	CodeInternal           Code = "internal_error"
	CodeInvariantViolation Code = "invariant_violation"
	CodeValidation         Code = "validation_failed"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeUnavailable        Code = "unavailable"
)

// Error is a coded domain error. The zero value is not usable; construct
// through New or Wrap.
type Error struct {
	code    Code
	message string
	cause   error
}

// New returns a coded error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf returns a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap annotates err with a code and message. Returns nil when err is nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{code: code, message: message, cause: err}
}

// Wrapf annotates err with a code and a formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{code: code, message: fmt.Sprintf(format, args...), cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.message + ": " + e.cause.Error()
	}
	return e.message
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is makes coded errors comparable with errors.Is: two of them match when
// code and message agree, regardless of cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.code == t.code && e.message == t.message
}

// Code returns the classification of this error.
func (e *Error) Code() Code {
	return e.code
}

// Message returns the client-safe description without the cause chain.
func (e *Error) Message() string {
	return e.message
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if errors.As(err, &de) {
			if de.code == code {
				return true
			}
			err = de.cause
			continue
		}
		return false
	}
	return false
}

// GetCode returns the outermost code in err's chain, or CodeInternal when err
// carries none.
func GetCode(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
