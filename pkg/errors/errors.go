// Package errors defines the sentinel errors shared by the content store and
// an AppError wrapper that carries a human message and an HTTP status code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrNotOwner      = errors.New("not the owner")
	ErrAlreadyExists = errors.New("already exists")
	ErrAlreadyLiked  = errors.New("already liked")
	ErrNotLiked      = errors.New("not liked")
	ErrEmpty         = errors.New("nothing to undo")
	ErrInvalidInput  = errors.New("invalid input")
	ErrPersistence   = errors.New("persistence write failed")
	ErrUnavailable   = errors.New("dependency unavailable")
	ErrInternal      = errors.New("internal error")
	ErrTimeout       = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusFor(sentinel),
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusFor(sentinel),
	}
}

// Persistence wraps a storage failure. The in-memory change that triggered
// the write has already been applied when this is returned.
func Persistence(cause error) *AppError {
	return &AppError{
		Err:        ErrPersistence,
		Message:    cause.Error(),
		StatusCode: http.StatusInternalServerError,
	}
}

// IsPersistence reports whether err only signals a failed write.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistence)
}

func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode != 0 {
		return appErr.StatusCode
	}
	return statusFor(err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrAlreadyLiked), errors.Is(err, ErrNotLiked):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrEmpty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrUnavailable), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
