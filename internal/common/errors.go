// Package common defines sentinel errors and constants shared by the server
// and the client. Callers match errors with errors.Is.
package common

import "errors"

var (
	// repository errors
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// service errors
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
