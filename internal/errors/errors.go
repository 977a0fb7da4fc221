// Package errors provides the internal error type used across the service.
// Errors are built fluently and marked with a sentinel that drives both
// errors.Is checks and HTTP status mapping:
//
//	return ierr.NewError("company ID is required").
//		WithHint("Please provide a valid company ID").
//		Mark(ierr.ErrValidation)
package errors

import (
	"github.com/cockroachdb/errors"
)

// Sentinel errors. Every error leaving a repository or service is marked
// with exactly one of these.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("resource not found")
	ErrAlreadyExists    = errors.New("resource already exists")
	ErrPermissionDenied = errors.New("permission denied")
	ErrDatabase         = errors.New("database error")
	ErrHTTPClient       = errors.New("http client error")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInternal         = errors.New("internal error")
	ErrSystem           = errors.New("system error")
)

// InternalError is the concrete error carried through the service layers.
type InternalError struct {
	cause             error
	mark              error
	hint              string
	reportableDetails map[string]interface{}
}

func (e *InternalError) Error() string {
	if e.cause != nil {
		return e.cause.Error()
	}
	if e.mark != nil {
		return e.mark.Error()
	}
	return "unknown error"
}

func (e *InternalError) Unwrap() error {
	return e.mark
}

// Cause returns the originating error, if any.
func (e *InternalError) Cause() error {
	return e.cause
}

// Hint returns the operator/user facing hint attached to the error.
func (e *InternalError) Hint() string {
	return e.hint
}

// ReportableDetails returns structured context safe to expose in responses.
func (e *InternalError) ReportableDetails() map[string]interface{} {
	return e.reportableDetails
}

// NewError starts a new error from a message.
func NewError(message string) *InternalError {
	return &InternalError{cause: errors.New(message)}
}

// NewErrorf starts a new error from a format string.
func NewErrorf(format string, args ...interface{}) *InternalError {
	return &InternalError{cause: errors.Newf(format, args...)}
}

// WithError wraps an existing error.
func WithError(err error) *InternalError {
	var internal *InternalError
	if errors.As(err, &internal) {
		return internal
	}
	return &InternalError{cause: err}
}

// WithHint attaches a human-readable hint.
func (e *InternalError) WithHint(hint string) *InternalError {
	e.hint = hint
	return e
}

// WithHintf attaches a formatted human-readable hint.
func (e *InternalError) WithHintf(format string, args ...interface{}) *InternalError {
	e.hint = errors.Newf(format, args...).Error()
	return e
}

// WithReportableDetails attaches structured details that are safe to expose
// in API responses (no internals, no secrets).
func (e *InternalError) WithReportableDetails(details map[string]interface{}) *InternalError {
	e.reportableDetails = details
	return e
}

// Mark finalizes the builder with a sentinel; the returned error satisfies
// errors.Is(err, sentinel).
func (e *InternalError) Mark(sentinel error) error {
	e.mark = sentinel
	if e.cause != nil {
		e.cause = errors.Mark(e.cause, sentinel)
	}
	return e
}

func IsValidation(err error) bool       { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool         { return errors.Is(err, ErrNotFound) }
func IsAlreadyExists(err error) bool    { return errors.Is(err, ErrAlreadyExists) }
func IsPermissionDenied(err error) bool { return errors.Is(err, ErrPermissionDenied) }
func IsDatabase(err error) bool         { return errors.Is(err, ErrDatabase) }
