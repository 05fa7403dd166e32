package application

import "errors"

// Error kinds returned by the services. Handlers map them to HTTP statuses
// with errors.Is, so wrap rather than replace them.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrConflict            = errors.New("conflict")
	ErrInternal            = errors.New("internal error")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrEmailTaken         = errors.New("email already registered")
	ErrAlreadyCompleted   = errors.New("task already completed")
)
