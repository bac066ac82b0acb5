// Package errs defines the error kinds shared by the git backends and the
// reconcilers. Callers classify failures with errors.Is against the sentinel
// kinds and extract diagnostic text with errors.As on *OperationError.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks an ambiguous or invalid local/remote setup. Not retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks a lookup that found nothing.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks invalid input detected before any remote call.
	ErrValidation = errors.New("validation error")

	// ErrOperation marks a failed remote command or API call.
	ErrOperation = errors.New("operation failed")

	// ErrResourceCleanup marks a failure to remove a temporary resource.
	ErrResourceCleanup = errors.New("resource cleanup failed")
)

// kindError attaches a sentinel kind to a formatted message.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// Configuration returns an ErrConfiguration with a formatted message.
func Configuration(format string, args ...any) error {
	return &kindError{kind: ErrConfiguration, msg: fmt.Sprintf(format, args...)}
}

// NotFound returns an ErrNotFound with a formatted message.
func NotFound(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Validation returns an ErrValidation with a formatted message.
func Validation(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// Cleanup returns an ErrResourceCleanup for the given path.
func Cleanup(path string, err error) error {
	return fmt.Errorf("%w: removing %s: %w", ErrResourceCleanup, path, err)
}

// OperationError is a failed remote command or API call. Detail carries the
// captured diagnostic text (stderr of a subprocess, body of an API response).
type OperationError struct {
	Op     string
	Detail string
	Err    error
}

// Operation wraps err as an *OperationError for op.
func Operation(op, detail string, err error) error {
	return &OperationError{Op: op, Detail: detail, Err: err}
}

func (e *OperationError) Error() string {
	msg := e.Op
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap exposes both the operation kind and the underlying cause.
func (e *OperationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrOperation}
	}
	return []error{ErrOperation, e.Err}
}
