package middleware

import "errors"

var (
	// ErrInvalidContext indicates middleware context is invalid
	ErrInvalidContext = errors.New("invalid middleware context")

	// ErrNotValidated indicates the final handler ran without a validated input
	ErrNotValidated = errors.New("request input has not been validated")
)
