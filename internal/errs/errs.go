// Package errs defines the application error taxonomy shared by the store,
// the auth service and the HTTP layer.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes.
const (
	EInvalid         = "invalid"
	ENotFound        = "not found"
	ERemoved         = "removed"
	EConflict        = "conflict"
	EUnauthorized    = "unauthorized"
	EForbidden       = "forbidden"
	ETooManyRequests = "too many requests"
	EInternal        = "internal error"
)

// internalMessage is shown to clients instead of the details of an internal error.
const internalMessage = "Sorry, the server is not responding. Try again later."

// Error is the error type returned across package boundaries. Code is
// machine readable; Msg is safe to show to the client.
type Error struct {
	Code string
	Msg  string
	Op   string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		fmt.Fprintf(&b, "%s: ", e.Op)
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
		return b.String()
	}
	if e.Code != "" {
		fmt.Fprintf(&b, "<%s> ", e.Code)
	}
	b.WriteString(e.Msg)
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error with the given code and client message.
func New(code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Newf is New with formatting.
func Newf(code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and operation name to err.
func Wrap(err error, code, op string) *Error {
	return &Error{Code: code, Op: op, Err: err}
}

// Code returns the code of the first coded error in the chain. Errors that
// carry no code are internal.
func Code(err error) string {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			break
		}
		if e.Code != "" {
			return e.Code
		}
		if e.Err == nil {
			return EInternal
		}
		err = e.Err
	}
	if err == nil {
		return ""
	}
	return EInternal
}

// Message returns the client facing message for err.
func Message(err error) string {
	code := Code(err)
	switch code {
	case "":
		return ""
	case EInternal:
		return internalMessage
	}
	for err != nil {
		if e, ok := err.(*Error); ok && e.Msg != "" {
			return e.Msg
		}
		err = errors.Unwrap(err)
	}
	return code
}

// Status maps an error code to its HTTP status.
func Status(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case EInvalid:
		return http.StatusBadRequest
	case EUnauthorized:
		return http.StatusUnauthorized
	case EForbidden:
		return http.StatusForbidden
	case ENotFound:
		return http.StatusNotFound
	case EConflict:
		return http.StatusConflict
	case ERemoved:
		return http.StatusGone
	case ETooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return Code(err) == code
}
