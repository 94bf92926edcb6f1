// Package jwttest mints bearer tokens for tests of code that only inspects a
// token's claims.
package jwttest

import (
	"encoding/base64"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

const defaultSecret = "console-test-secret"

// Signer signs claims with HMAC-SHA256.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	if secret == "" {
		secret = defaultSecret
	}
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(claims jwtlib.MapClaims) (string, error) {
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}

// TokenExpiringAt returns a signed token whose exp claim is exp.
func TokenExpiringAt(t testing.TB, exp time.Time) string {
	t.Helper()
	token, err := NewSigner("").Sign(jwtlib.MapClaims{
		"sub": "user-1",
		"iat": exp.Add(-time.Hour).Unix(),
		"exp": exp.Unix(),
	})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

// ValidToken returns a token that expires an hour from now.
func ValidToken(t testing.TB) string {
	t.Helper()
	return TokenExpiringAt(t, time.Now().Add(time.Hour))
}

// ExpiredToken returns a token whose exp is one second in the past.
func ExpiredToken(t testing.TB) string {
	t.Helper()
	return TokenExpiringAt(t, time.Now().Add(-time.Second))
}

// WithPayload assembles an unsigned three segment token around a raw payload.
func WithPayload(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}
