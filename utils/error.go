package utils

import (
	"errors"
	"fmt"
	"strings"
)

var ErrorRecordNotFound = errors.New("record not found")

// ErrorNotAllowed is returned when the acting user's capability set does not
// permit the requested workflow operation.
var ErrorNotAllowed = errors.New("not allowed")

// ValidationError reports malformed input. It is always surfaced to the
// caller and never retried.
type ValidationError struct {
	// Fields maps field name -> problem. May hold a single "" key for
	// errors that are not tied to one field.
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		if field == "" {
			parts = append(parts, msg)
		} else {
			parts = append(parts, field+": "+msg)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{"": message}}
}

func NewFieldValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports an operation against a composite key that does not
// exist (update/delete/approve/reject on a missing row).
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrorRecordNotFound }

func NewNotFoundError(resource, keyFormat string, args ...any) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: fmt.Sprintf(keyFormat, args...)}
}

func IsNotFoundError(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
