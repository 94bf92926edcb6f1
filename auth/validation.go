package auth

import (
	"fmt"
	"strings"
)

// Validator holds the client-side checks run around login.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCredentials rejects input the backend would refuse anyway.
func (v *Validator) ValidateCredentials(creds Credentials) error {
	email := strings.TrimSpace(creds.Email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidCredentials)
	}
	at := strings.Index(email, "@")
	if at < 1 || !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("%w: invalid email format", ErrInvalidCredentials)
	}
	if creds.Password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidCredentials)
	}
	return nil
}

// ValidateAccessToken checks the token has three non-empty segments.
func (v *Validator) ValidateAccessToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("%w: must be a JWT", ErrInvalidAccessToken)
	}
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("%w: part %d is empty", ErrInvalidAccessToken, i+1)
		}
	}
	return nil
}
