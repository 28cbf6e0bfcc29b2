package errors

import (
	"errors"
)

// Common error types for the login demo
var (
	// Account errors
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("user with this email or username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidUserData    = errors.New("invalid user data provided")

	// Provider errors
	ErrUnsupportedProvider = errors.New("unsupported oauth provider")
	ErrInvalidProvider     = errors.New("invalid provider configuration")
)
