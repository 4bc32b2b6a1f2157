package model

import "fmt"

// ValidationError means a precondition failed before any write happened.
// Always recoverable and surfaced to the caller.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// NewValidationError builds a ValidationError for a field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// LimitExceededError is a validation failure raised by admission control.
type LimitExceededError struct {
	Limit   int
	Message string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s (limit %d)", e.Message, e.Limit)
}

// AuthorizationError means the actor lacks the permission for the attempted
// operation. Checked before any state mutation.
type AuthorizationError struct {
	Action string
}

func (e *AuthorizationError) Error() string {
	return "not authorized to " + e.Action
}

// NewAuthorizationError builds an AuthorizationError for an action.
func NewAuthorizationError(action string) *AuthorizationError {
	return &AuthorizationError{Action: action}
}

// NotFoundError means a referenced document did not resolve.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.Path
}

// NewNotFoundError builds a NotFoundError for a document path.
func NewNotFoundError(path string) *NotFoundError {
	return &NotFoundError{Path: path}
}
