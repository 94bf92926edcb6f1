package jwt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-cert-console/internal/errors"
)

// ExpiryOracle decides from a bearer token's own exp claim whether the token
// is still usable. It never verifies the signature and never contacts the
// server: the backend remains the authority and answers 401 for anything it
// rejects.
//
// Any token that cannot be decoded is reported as expired.
type ExpiryOracle struct {
	parser  *jwtlib.Parser
	leeway  time.Duration
	nowFunc func() time.Time
}

// OracleOption configures an ExpiryOracle.
type OracleOption func(*ExpiryOracle)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) OracleOption {
	return func(o *ExpiryOracle) {
		o.nowFunc = now
	}
}

// WithLeeway treats a token as valid for d past its exp claim.
func WithLeeway(d time.Duration) OracleOption {
	return func(o *ExpiryOracle) {
		if d > 0 {
			o.leeway = d
		}
	}
}

// NewExpiryOracle creates an oracle on the wall clock with no leeway.
func NewExpiryOracle(options ...OracleOption) *ExpiryOracle {
	o := &ExpiryOracle{
		parser: jwtlib.NewParser(jwtlib.WithPaddingAllowed()),
	}
	for _, opt := range options {
		opt(o)
	}
	if o.nowFunc == nil {
		o.nowFunc = time.Now
	}
	return o
}

// IsExpired reports whether rawToken is past its expiry.
func (o *ExpiryOracle) IsExpired(rawToken string) bool {
	exp, err := o.ExpiresAt(rawToken)
	if err != nil {
		return true
	}
	return o.nowFunc().After(exp.Add(o.leeway))
}

// ExpiresAt decodes the exp claim of rawToken.
func (o *ExpiryOracle) ExpiresAt(rawToken string) (time.Time, error) {
	segments := strings.Split(rawToken, ".")
	if len(segments) != 3 {
		return time.Time{}, fmt.Errorf("%w: expected 3 segments, got %d", apperrors.ErrInvalidToken, len(segments))
	}

	payload, err := o.parser.DecodeSegment(segments[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: decode payload: %v", apperrors.ErrInvalidToken, err)
	}

	var claims jwtlib.MapClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: payload is not a JSON object: %v", apperrors.ErrInvalidToken, err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}
	if exp == nil {
		return time.Time{}, apperrors.ErrMissingExp
	}
	return exp.Time, nil
}
