// Package errors provides structured error types for pacstage.
//
// Errors carry a machine-readable [Code] so the CLI and the HTTP API can
// react to the same failure in the same way: the CLI chooses an exit status
// and message, the API chooses a status code.
//
// # Error Codes
//
//   - INVALID_*: input validation failures
//   - UNRESOLVED_DEPENDENCY: a dependency no source can provide
//   - DOWNLOAD_ABORTED, CACHE_DIR, MIRROR_UNAVAILABLE: staging failures
//   - NETWORK_*, TIMEOUT: transport failures
//   - INTERNAL_ERROR: everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidPackage, "invalid package name: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidPackage) {
//	    // handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeDownloadAborted, origErr, "fetch %s", pkg)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"

	// Resolution errors
	ErrCodeUnresolved Code = "UNRESOLVED_DEPENDENCY"
	ErrCodeNotFound   Code = "NOT_FOUND"
	ErrCodeCancelled  Code = "CANCELLED"

	// Staging errors
	ErrCodeDownloadAborted   Code = "DOWNLOAD_ABORTED"
	ErrCodeCacheDir          Code = "CACHE_DIR"
	ErrCodeMirrorUnavailable Code = "MIRROR_UNAVAILABLE"

	// Network errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a coded failure. Message is shown to users; Cause, if any, is
// kept for errors.Is and errors.As.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Code) + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an Error with a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with a formatted message and cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// when there is none.
func GetCode(err error) Code {
	if e, ok := asError(err); ok {
		return e.Code
	}
	return ""
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	return err != nil && GetCode(err) == code
}

// UserMessage returns the message of the outermost *Error without its code,
// or err.Error() for other errors.
func UserMessage(err error) string {
	if e, ok := asError(err); ok {
		return e.Message
	}
	return err.Error()
}

func asError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
