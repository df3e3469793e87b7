package engine

import (
	"errors"
	"fmt"
)

// ErrorClass represents the classification of an error.
type ErrorClass string

const (
	// ErrorClassValidation indicates an invalid argument or configuration.
	// Examples: nil rule, duplicate rule name, non-positive interval.
	ErrorClassValidation ErrorClass = "validation"

	// ErrorClassExecution indicates a failure raised from within a rule's
	// Execute. These are always recovered at the per-rule boundary.
	ErrorClassExecution ErrorClass = "execution"

	// ErrorClassState indicates an operation invalid for the current state.
	// Example: starting an already-running scheduler.
	ErrorClassState ErrorClass = "state"
)

// Error represents a classified engine error with context.
type Error struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Rule is the rule name that caused the error, if applicable.
	Rule string `json:"rule,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("[%s] %s (rule=%s)%s", e.Class, e.Message, e.Rule, e.unwrapSuffix())
	}
	return fmt.Sprintf("[%s] %s%s", e.Class, e.Message, e.unwrapSuffix())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) unwrapSuffix() string {
	if e.Err != nil {
		return ": " + e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewValidationError creates a new validation error.
func NewValidationError(message string, err error) *Error {
	return &Error{Class: ErrorClassValidation, Message: message, Err: err}
}

// NewExecutionError creates a new execution error.
func NewExecutionError(message string, err error) *Error {
	return &Error{Class: ErrorClassExecution, Message: message, Err: err}
}

// NewStateError creates a new state error.
func NewStateError(message string, err error) *Error {
	return &Error{Class: ErrorClassState, Message: message, Err: err}
}

// WithRule adds rule context to an error.
func (e *Error) WithRule(name string) *Error {
	e.Rule = name
	return e
}

// WithCode adds an error code to an error.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

// IsValidation returns true if the error is classified as validation.
func IsValidation(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassValidation
	}
	return false
}

// IsState returns true if the error is classified as a state error.
func IsState(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Class == ErrorClassState
	}
	return false
}

// Common error codes.
const (
	ErrCodeNilRule        = "NIL_RULE"
	ErrCodeEmptyName      = "EMPTY_NAME"
	ErrCodeDuplicateRule  = "DUPLICATE_RULE"
	ErrCodeBadInterval    = "BAD_INTERVAL"
	ErrCodeAlreadyRunning = "ALREADY_RUNNING"
)
