package errors

import (
	"errors"
	"fmt"
)

// Common error types for the console client
var (
	// Session errors
	ErrSessionExpired = errors.New("session expired")
	ErrUnauthorized   = errors.New("unauthorized")

	// Token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingExp   = errors.New("token missing exp claim")
	ErrNoToken      = errors.New("no token in login response")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Tenant errors
	ErrTenantNotFound = errors.New("tenant not found")
	ErrEmptyCatalog   = errors.New("tenant catalog is empty")

	// Storage errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
