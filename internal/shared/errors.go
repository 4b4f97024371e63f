package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken occurs when a registration email is already in use.
	ErrEmailTaken = errors.New("email already taken")
	// ErrInvalidToken occurs when a session token fails verification.
	ErrInvalidToken = errors.New("invalid token")
)
