package gateway

import (
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-cert-console/internal/errors"
)

var (
	// ErrSessionExpired matches gateway errors raised because the stored token
	// had expired before any network call was made.
	ErrSessionExpired = apperrors.ErrSessionExpired
	// ErrUnauthorized matches every 401 the gateway returns, local or remote.
	ErrUnauthorized = apperrors.ErrUnauthorized
)

const sessionExpiredMessage = "session expired"

// Kind classifies an APIError.
type Kind int

const (
	// KindHTTP is any non-2xx, non-401 response.
	KindHTTP Kind = iota
	// KindLocalExpiry is a token judged expired before the request was sent.
	KindLocalExpiry
	// KindUnauthorized is a 401 returned by the server.
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindLocalExpiry:
		return "local_expiry"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "http"
	}
}

// APIError is returned for every non-2xx response and for locally detected
// session expiry.
type APIError struct {
	Status   int
	Message  string
	Data     any
	Kind     Kind
	Method   string
	Endpoint string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Endpoint, e.Status, e.Message)
}

// Is lets callers branch with errors.Is(err, gateway.ErrUnauthorized).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrSessionExpired:
		return e.Kind == KindLocalExpiry
	}
	return false
}

// IsAPIError unwraps err into an *APIError.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if apperrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
