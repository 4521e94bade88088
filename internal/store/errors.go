package store

import "errors"

// Operation errors surfaced to callers. NotFound deliberately covers
// both "does not exist" and "exists but owned by another user" so that
// ownership is never leaked through a distinct forbidden signal.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInsufficientStock  = errors.New("insufficient stock")
)
