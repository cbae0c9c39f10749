package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors for the authorization taxonomy. Services wrap one of these
// in an *AppError; handlers map them to HTTP status codes with errors.Is.
var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrValidation          = errors.New("validation error")
	ErrInvalidRelationship = errors.New("invalid relationship")
	ErrConflict            = errors.New("conflict")
)

type AppError struct {
	Err     error  // sentinel the error wraps
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Unauthorized returns an AppError for a failed principal resolution.
//
// Every failure mode — malformed token, expired token, missing subject claim,
// or no user behind the embedded id — produces this same error with the same
// message, so a caller can't probe which step rejected the credential.
func Unauthorized() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "could not validate credentials",
	}
}

// Forbidden returns an AppError indicating the caller is authenticated but
// lacks the right to the entity. HTTP handlers map this to 403.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// InvalidRelationship marks a structurally invalid edge, such as a user
// following themselves. Distinct from Forbidden: no amount of privilege makes
// the edge valid.
func InvalidRelationship(message string) *AppError {
	return &AppError{
		Err:     ErrInvalidRelationship,
		Message: message,
	}
}

func Conflict(resource, detail string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, detail),
	}
}
