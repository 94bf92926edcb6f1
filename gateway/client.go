package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-cert-console/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	contentTypeJSON = "application/json"

	// HeaderRequestID carries a per-call uuid for log correlation with the backend.
	HeaderRequestID = "X-Request-ID"
)

// TokenGetter reads the current bearer token. An empty token means anonymous.
type TokenGetter interface {
	Get(ctx context.Context) (string, error)
}

// ExpiryChecker reports whether a raw token can no longer be used.
type ExpiryChecker interface {
	IsExpired(rawToken string) bool
}

// Terminator ends the session when the gateway sees it is dead. The gateway
// only ever ends the session generation its request was sent under.
type Terminator interface {
	Generation() uint64
	TerminateGeneration(ctx context.Context, generation uint64, reason sessions.Reason) bool
}

// TenantResolver supplies the tenant id for scoped requests.
type TenantResolver interface {
	ActiveID(ctx context.Context) (string, error)
}

// TenantResolverFunc adapts a plain function to TenantResolver.
type TenantResolverFunc func(ctx context.Context) (string, error)

// ActiveID calls f.
func (f TenantResolverFunc) ActiveID(ctx context.Context) (string, error) {
	return f(ctx)
}

// Client is the single path from the console to the backend API.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokens       TokenGetter
	expiry       ExpiryChecker
	sessions     Terminator
	tenants      TenantResolver
	tenantHeader string
	limiter      *rate.Limiter
	timeout      time.Duration
	logger       zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient. A nil client is ignored.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used for request and failure logs.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout bounds each request, including reading the body.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit paces outgoing requests. A non-positive limit disables pacing.
func WithRateLimit(limit rate.Limit, burst int) ClientOption {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithTenantScope adds the active tenant id to every request under header.
func WithTenantScope(resolver TenantResolver, header string) ClientOption {
	return func(c *Client) {
		if resolver == nil || header == "" {
			return
		}
		c.tenants = resolver
		c.tenantHeader = header
	}
}

// NewClient creates a Client rooted at baseURL. tokens supplies the bearer,
// expiry judges it before every call and terminator ends the session on local
// expiry or a server 401.
func NewClient(baseURL string, tokens TokenGetter, expiry ExpiryChecker, terminator Terminator, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		tokens:     tokens,
		expiry:     expiry,
		sessions:   terminator,
		logger:     log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Request sends one call to endpoint. Non-2xx responses come back as
// *APIError; transport failures are returned as the http.Client reported them.
func (c *Client) Request(ctx context.Context, endpoint string, opts RequestOptions) (*Response, error) {
	generation := c.sessions.Generation()
	token, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("read session token: %w", err)
	}

	method := opts.method()
	if token != "" && c.expiry.IsExpired(token) {
		c.sessions.TerminateGeneration(ctx, generation, sessions.ReasonLocalExpiry)
		return nil, &APIError{
			Status:   http.StatusUnauthorized,
			Message:  sessionExpiredMessage,
			Kind:     KindLocalExpiry,
			Method:   method,
			Endpoint: endpoint,
		}
	}

	body, err := opts.encode()
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(endpoint), body.reader)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, endpoint, err)
	}
	requestID := uuid.NewString()
	c.defaultHeaders(ctx, req, token, body.contentType, requestID)
	for key, values := range opts.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit %s %s: %w", method, endpoint, err)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Err(err).Str("request_id", requestID).Str("method", method).Str("endpoint", endpoint).Msg("Request: transport failure")
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s %s: %w", method, endpoint, err)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("endpoint", endpoint).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("gateway request")

	if resp.StatusCode == http.StatusUnauthorized {
		c.sessions.TerminateGeneration(ctx, generation, sessions.ReasonUnauthorized)
		return nil, c.apiError(resp.StatusCode, data, KindUnauthorized, method, endpoint)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.apiError(resp.StatusCode, data, KindHTTP, method, endpoint)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// Do is Request reduced to the normalized body value.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions) (any, error) {
	resp, err := c.Request(ctx, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return resp.Value(), nil
}

// Request is the typed form of Client.Request. An empty body yields the zero
// T, or an empty object when T is any. A body that is not JSON is accepted
// only when T is string or any.
func Request[T any](ctx context.Context, c *Client, endpoint string, opts RequestOptions) (T, error) {
	var out T
	resp, err := c.Request(ctx, endpoint, opts)
	if err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		if p, ok := any(&out).(*any); ok {
			*p = map[string]any{}
		}
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		switch p := any(&out).(type) {
		case *string:
			*p = string(resp.Body)
			return out, nil
		case *any:
			*p = string(resp.Body)
			return out, nil
		}
		var zero T
		return zero, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return out, nil
}

func (c *Client) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return c.baseURL + endpoint
}

func (c *Client) defaultHeaders(ctx context.Context, req *http.Request, token, contentType, requestID string) {
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(HeaderRequestID, requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.tenants == nil {
		return
	}
	tenantID, err := c.tenants.ActiveID(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Request: no active tenant, sending unscoped")
		return
	}
	if tenantID != "" {
		req.Header.Set(c.tenantHeader, tenantID)
	}
}

func (c *Client) apiError(status int, body []byte, kind Kind, method, endpoint string) *APIError {
	message, data := errorDetail(body)
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{
		Status:   status,
		Message:  message,
		Data:     data,
		Kind:     kind,
		Method:   method,
		Endpoint: endpoint,
	}
}
