package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries the HTTP status a failure maps to alongside a stable
// machine-readable code. Services raise these for logical failures
// (missing rows, key conflicts, bad input); anything else is treated
// as unexpected at the boundary.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func NotFound(code, format string, args ...interface{}) *Error {
	return New(http.StatusNotFound, code, fmt.Errorf(format, args...))
}

func Conflict(code, format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, code, fmt.Errorf(format, args...))
}

func Invalid(code, format string, args ...interface{}) *Error {
	return New(http.StatusBadRequest, code, fmt.Errorf(format, args...))
}

func Forbidden(code, format string, args ...interface{}) *Error {
	return New(http.StatusForbidden, code, fmt.Errorf(format, args...))
}

// StatusOf resolves the HTTP status for err, defaulting to 500 for
// anything that is not an *Error.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Status != 0 {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

// CodeOf resolves the machine-readable code for err, or "internal_error".
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Code != "" {
		return apiErr.Code
	}
	return "internal_error"
}

func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
