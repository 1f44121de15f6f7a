// Package errs provides the error taxonomy shared by the release tooling.
// Errors carry a string code so callers can distinguish failure kinds with
// errors.As without depending on the package that raised them.
package errs

import (
	"errors"
	"fmt"
)

// Code represents a class of failure.
type Code string

const (
	// CodeNotFound indicates a requested resource does not exist.
	CodeNotFound Code = "NOT_FOUND"

	// CodeInvalidInput indicates a required argument is missing or malformed.
	CodeInvalidInput Code = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig Code = "INVALID_CONFIGURATION"

	// CodeExecutionFailed indicates an external process failed.
	CodeExecutionFailed Code = "EXECUTION_FAILED"

	// CodeInternal indicates a programming error.
	CodeInternal Code = "INTERNAL_ERROR"

	// CodeUnknown is reported for errors that carry no code.
	CodeUnknown Code = "UNKNOWN"
)

// Error is a coded error. Op names the operation that failed and is optional.
type Error struct {
	Code Code
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error with a formatted message.
func New(code Code, format string, args ...any) error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and operation to err. A nil err yields nil.
func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Err: err}
}

// NotFound creates a CodeNotFound error.
func NotFound(format string, args ...any) error {
	return New(CodeNotFound, format, args...)
}

// InvalidInput creates a CodeInvalidInput error.
func InvalidInput(format string, args ...any) error {
	return New(CodeInvalidInput, format, args...)
}

// InvalidConfig creates a CodeInvalidConfig error.
func InvalidConfig(format string, args ...any) error {
	return New(CodeInvalidConfig, format, args...)
}

// Internal creates a CodeInternal error.
func Internal(format string, args ...any) error {
	return New(CodeInternal, format, args...)
}

// Coder is implemented by error types that classify themselves without
// being an *Error.
type Coder interface {
	ErrorCode() Code
}

// CodeOf returns the code of the outermost coded error in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch v := e.(type) {
		case *Error:
			return v.Code
		case Coder:
			return v.ErrorCode()
		}
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsInvalidInput returns true if err is a validation error.
func IsInvalidInput(err error) bool {
	return Is(err, CodeInvalidInput)
}

// IsInvalidConfig returns true if err is a configuration error.
func IsInvalidConfig(err error) bool {
	return Is(err, CodeInvalidConfig)
}
