package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed application error carrying its HTTP mapping.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`

	kind *Error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap exposes both the wrapped cause and the kind the error was derived from,
// so errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	return errs
}

// New creates a new error kind.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Derive creates a more specific error of an existing kind.
func Derive(kind *Error, message string) *Error {
	return &Error{Code: kind.Code, Status: kind.Status, Message: message, kind: kind}
}

// Wrap attaches a cause to an error kind.
func Wrap(err error, kind *Error, message string) *Error {
	return &Error{Code: kind.Code, Status: kind.Status, Message: message, Err: err, kind: kind}
}

// Kinds shared by every package.
var (
	ErrNotFound          = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrDoctorUnavailable = New("DOCTOR_UNAVAILABLE", http.StatusUnprocessableEntity, "doctor is not available on that day")
	ErrOutOfWindow       = New("OUT_OF_WINDOW", http.StatusUnprocessableEntity, "requested time is outside working hours")
	ErrDoubleBooked      = New("DOUBLE_BOOKED", http.StatusConflict, "time slot already booked for this doctor")
	ErrInvalidTransition = New("INVALID_TRANSITION", http.StatusConflict, "invalid status transition")
	ErrStoreUnavailable  = New("STORE_UNAVAILABLE", http.StatusServiceUnavailable, "store unavailable, retry later")
	ErrValidation        = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized      = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden         = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrInternal          = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// ErrCacheMiss signals that a cache lookup found nothing.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal, ErrInternal.Message)
}

// Retryable reports whether the caller may retry the same request later.
func Retryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
