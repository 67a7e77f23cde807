package model

import (
	"fmt"
	"strings"
)

// NotFoundError is an error signaling that something was not found in the
// database
type NotFoundError string

// Error implements the error interface
func (e NotFoundError) Error() string {
	return string(e)
}

// NotFoundErrorFmt returns a NotFoundError from the passed format string and parameters
func NotFoundErrorFmt(format string, params ...any) NotFoundError {
	return NotFoundError(fmt.Sprintf(format, params...))
}

// AlreadyExistsError is an error signaling that a unique value is already taken
type AlreadyExistsError string

// Error implements the error interface
func (e AlreadyExistsError) Error() string {
	return string(e)
}

// AlreadyExistsErrorFmt returns an AlreadyExistsError from the passed format string and parameters
func AlreadyExistsErrorFmt(format string, params ...any) AlreadyExistsError {
	return AlreadyExistsError(fmt.Sprintf(format, params...))
}

// ConflictError signals that an operation cannot be applied because other
// rows still depend on the affected entity.
type ConflictError string

// Error implements the error interface
func (e ConflictError) Error() string {
	return string(e)
}

// ConflictErrorFmt returns a ConflictError from the passed format string and parameters
func ConflictErrorFmt(format string, params ...any) ConflictError {
	return ConflictError(fmt.Sprintf(format, params...))
}

// ValidationError is returned for malformed input. Details optionally
// enumerates the offending or the allowed values.
type ValidationError struct {
	Message string
	Details []string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Details, ", "))
}

// ValidationErrorFmt returns a ValidationError without details
func ValidationErrorFmt(format string, params ...any) ValidationError {
	return ValidationError{Message: fmt.Sprintf(format, params...)}
}
