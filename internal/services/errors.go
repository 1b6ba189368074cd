package services

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrFolderHasNoContent = errors.New("a folder doesn't have content")
)

// ValidationError is a rejected input. Message is safe to return to clients.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrMissingName      = &ValidationError{Message: "Missing name"}
	ErrMissingType      = &ValidationError{Message: "Missing type"}
	ErrMissingData      = &ValidationError{Message: "Missing data"}
	ErrInvalidData      = &ValidationError{Message: "Invalid data"}
	ErrParentNotFound   = &ValidationError{Message: "Parent not found"}
	ErrParentNotAFolder = &ValidationError{Message: "Parent is not a folder"}
	ErrMissingEmail     = &ValidationError{Message: "Missing email"}
	ErrMissingPassword  = &ValidationError{Message: "Missing password"}
	ErrEmailTaken       = &ValidationError{Message: "Already exist"}
)
