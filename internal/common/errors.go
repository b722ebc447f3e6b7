// Package common defines shared constants and sentinel errors used across
// the server, the REST layer and the CLI client. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("not authorized")
	ErrorValidation   = errors.New("validation error")

	// Verification workflow errors.
	ErrorAlreadyVerified = errors.New("verification has already been passed")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
)
