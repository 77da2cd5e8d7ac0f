package cronjob

import (
	"fmt"

	"github.com/moltdash/moltdash/internal/logger"
)

// ValidationError reports malformed or missing caller input. It is never
// retried and maps to a 4xx response at the boundary.
type ValidationError struct {
	Op      string // Operation that rejected the input
	Field   string // Offending field, when known
	Message string // Human-readable reason
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// LogFields returns structured logging fields for the error.
func (e *ValidationError) LogFields() []logger.Field {
	fields := []logger.Field{
		{Key: "op", Value: e.Op},
		{Key: "reason", Value: e.Message},
	}
	if e.Field != "" {
		fields = append(fields, logger.Field{Key: "field", Value: e.Field})
	}
	return fields
}

// NotFoundError reports an operation targeting a job id that does not exist.
type NotFoundError struct {
	Op string
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: job not found: %s", e.Op, e.ID)
}

// LogFields returns structured logging fields for the error.
func (e *NotFoundError) LogFields() []logger.Field {
	return []logger.Field{
		{Key: "op", Value: e.Op},
		{Key: "job_id", Value: e.ID},
	}
}

// StorageError reports an underlying read/write failure against the jobs
// file. It may be transient and maps to a 5xx response at the boundary.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: storage failure on %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// LogFields returns structured logging fields for the error.
func (e *StorageError) LogFields() []logger.Field {
	return []logger.Field{
		{Key: "op", Value: e.Op},
		{Key: "path", Value: e.Path},
		{Key: "error", Value: e.Err},
	}
}

func newValidationError(op, field, message string) *ValidationError {
	return &ValidationError{Op: op, Field: field, Message: message}
}

func newNotFoundError(op, id string) *NotFoundError {
	return &NotFoundError{Op: op, ID: id}
}

func newStorageError(op, path string, err error) *StorageError {
	return &StorageError{Op: op, Path: path, Err: err}
}
