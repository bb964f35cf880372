package service

import "errors"

// Failure taxonomy surfaced to the transport layer. Handlers translate each
// entry to a stable status code; anything else is an opaque internal error.
var (
	ErrAlreadyExists      = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrNotFound           = errors.New("user not found")
	ErrRoleAlreadyExists  = errors.New("role already exists")
	ErrInvalidRole        = errors.New("role does not exist")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("insufficient permissions")
)
