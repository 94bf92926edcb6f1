package auth

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-cert-console/gateway"
	apperrors "github.com/jrsteele09/go-cert-console/internal/errors"
	"github.com/jrsteele09/go-cert-console/sessions"
	"github.com/jrsteele09/go-cert-console/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// TokenStore is the subset of token.Store the service needs.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
}

// ExpiryChecker reports whether a raw token can no longer be used.
type ExpiryChecker interface {
	IsExpired(rawToken string) bool
}

// SessionLifecycle starts and ends sessions.
type SessionLifecycle interface {
	Begin(ctx context.Context, install func(ctx context.Context) error) (uint64, error)
	Terminate(ctx context.Context, reason sessions.Reason) bool
}

// Service signs the console operator in and out.
type Service struct {
	gateway   *gateway.Client
	tokens    TokenStore
	expiry    ExpiryChecker
	lifecycle SessionLifecycle
	profiles  *users.ProfileCache
	validator *Validator
	logger    zerolog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for sign-in logs.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a Service that signs in through gw.
func NewService(gw *gateway.Client, tokens TokenStore, expiry ExpiryChecker, lifecycle SessionLifecycle, profiles *users.ProfileCache, options ...ServiceOption) *Service {
	s := &Service{
		gateway:   gw,
		tokens:    tokens,
		expiry:    expiry,
		lifecycle: lifecycle,
		profiles:  profiles,
		validator: NewValidator(),
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Login exchanges credentials for a bearer token and opens a new session.
// Any previously stored token is dropped first so a stale one cannot block
// the login call.
func (s *Service) Login(ctx context.Context, creds Credentials) (*users.Profile, error) {
	if err := s.validator.ValidateCredentials(creds); err != nil {
		return nil, err
	}
	if err := s.tokens.Set(ctx, ""); err != nil {
		return nil, apperrors.Wrapf(err, "drop previous token")
	}

	resp, err := gateway.Request[LoginResponse](ctx, s.gateway, loginEndpoint, gateway.RequestOptions{
		Method: http.MethodPost,
		JSON:   creds,
	})
	if err != nil {
		if apiErr, ok := gateway.IsAPIError(err); ok && apiErr.Status == http.StatusUnauthorized {
			return nil, apperrors.Wrapf(ErrInvalidCredentials, "%s", apiErr.Message)
		}
		return nil, err
	}

	token := resp.BearerToken()
	if err := s.validator.ValidateAccessToken(token); err != nil {
		return nil, err
	}
	generation, err := s.lifecycle.Begin(ctx, func(ctx context.Context) error {
		if err := s.tokens.Set(ctx, token); err != nil {
			return apperrors.Wrapf(err, "store token")
		}
		if err := s.profiles.Save(ctx, resp.User); err != nil {
			s.logger.Err(err).Msg("Login: failed to cache user profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("email", creds.Email).Uint64("generation", generation).Msg("signed in")
	return resp.User, nil
}

// Logout ends the session locally.
func (s *Service) Logout(ctx context.Context) {
	s.lifecycle.Terminate(ctx, sessions.ReasonUserLogout)
}

// IsAuthenticated is true when a token is stored and has not expired.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	token, err := s.tokens.Get(ctx)
	if err != nil {
		s.logger.Err(err).Msg("IsAuthenticated: failed to read token")
		return false
	}
	return token != "" && !s.expiry.IsExpired(token)
}

// CurrentUser returns the cached profile of an authenticated session, or nil.
func (s *Service) CurrentUser(ctx context.Context) (*users.Profile, error) {
	if !s.IsAuthenticated(ctx) {
		return nil, nil
	}
	return s.profiles.Load(ctx)
}
