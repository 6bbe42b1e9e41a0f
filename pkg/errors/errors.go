// Package errors provides structured error types for riglink.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI, the panel and the HTTP API
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Per-layer failure records for batch operations
//
// # Error Codes
//
// Error codes map one-to-one onto the situations a user can hit while
// rigging a scene:
//   - NO_ACTIVE_SCENE: no scene was given to an operation
//   - NO_SELECTION: the operation needs at least one selected layer
//   - NO_CONTROLLERS: a binding was requested but the scene has no controllers
//   - CONTROLLER_NOT_FOUND: a controller label did not resolve
//   - PROPERTY_UNAVAILABLE: a layer lacks the targeted formula slot
//
// # Usage
//
//	err := errors.New(errors.ErrCodeControllerNotFound, "selected controller not found: %s", name)
//	if errors.Is(err, errors.ErrCodeControllerNotFound) {
//	    // Handle missing controller
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeInternal, origErr, "save scene %s", name)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Scene state errors
	ErrCodeNoActiveScene       Code = "NO_ACTIVE_SCENE"
	ErrCodeNoSelection         Code = "NO_SELECTION"
	ErrCodeNoControllers       Code = "NO_CONTROLLERS"
	ErrCodeControllerNotFound  Code = "CONTROLLER_NOT_FOUND"
	ErrCodePropertyUnavailable Code = "PROPERTY_UNAVAILABLE"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidKind  Code = "INVALID_KIND"
	ErrCodeInvalidName  Code = "INVALID_NAME"

	// Resource not found errors
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeSceneNotFound Code = "SCENE_NOT_FOUND"
	ErrCodeLayerNotFound Code = "LAYER_NOT_FOUND"

	// Conflicts
	ErrCodeDuplicate Code = "DUPLICATE"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// LayerError records a failure that affected a single layer during a batch
// operation. Batches collect these instead of aborting.
type LayerError struct {
	Layer string // Layer name
	Op    string // "clear", "delete", "bind"
	Err   error
}

// Error implements the error interface.
func (e *LayerError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Layer, e.Err)
}

// Unwrap returns the underlying failure.
func (e *LayerError) Unwrap() error {
	return e.Err
}

// Code returns the code of the underlying failure, or INTERNAL_ERROR.
func (e *LayerError) Code() Code {
	if c := GetCode(e.Err); c != "" {
		return c
	}
	return ErrCodeInternal
}
