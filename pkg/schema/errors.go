package schema

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an APIError. The HTTP layer owns the mapping from
// kinds to status codes; everything below it reasons in kinds only.
type ErrorKind int

const (
	ErrKindUnauthorized ErrorKind = iota + 1
	ErrKindForbidden
	ErrKindNotFound
	ErrKindConflict
	ErrKindValidation
	ErrKindStorage
)

// APIError is the error type crossing service boundaries. Detail is the
// user-facing message; Err optionally carries the underlying cause.
type APIError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func Unauthorizedf(format string, args ...any) *APIError {
	return &APIError{Kind: ErrKindUnauthorized, Detail: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) *APIError {
	return &APIError{Kind: ErrKindForbidden, Detail: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *APIError {
	return &APIError{Kind: ErrKindNotFound, Detail: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *APIError {
	return &APIError{Kind: ErrKindConflict, Detail: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *APIError {
	return &APIError{Kind: ErrKindValidation, Detail: fmt.Sprintf(format, args...)}
}

// StorageErr wraps an infrastructure failure.
func StorageErr(detail string, err error) *APIError {
	return &APIError{Kind: ErrKindStorage, Detail: detail, Err: err}
}

// KindOf extracts the kind of an error, or 0 if it is not an APIError.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

func IsUnauthorized(err error) bool { return KindOf(err) == ErrKindUnauthorized }
func IsForbidden(err error) bool    { return KindOf(err) == ErrKindForbidden }
func IsNotFound(err error) bool     { return KindOf(err) == ErrKindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == ErrKindConflict }
func IsValidation(err error) bool   { return KindOf(err) == ErrKindValidation }
