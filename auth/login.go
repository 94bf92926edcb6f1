package auth

import (
	"github.com/jrsteele09/go-cert-console/users"
)

const loginEndpoint = "/api/auth/login"

// Credentials are posted to the login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the login endpoint's reply. Older backends name the
// bearer "token", newer ones follow RFC 6749 and use "access_token".
type LoginResponse struct {
	AccessToken string         `json:"access_token,omitempty"`
	Token       string         `json:"token,omitempty"`
	TokenType   string         `json:"token_type,omitempty"`
	ExpiresIn   int            `json:"expires_in,omitempty"`
	User        *users.Profile `json:"user,omitempty"`
}

// BearerToken prefers access_token over token.
func (r *LoginResponse) BearerToken() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}
