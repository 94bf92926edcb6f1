package token

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-cert-console/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store owns the current bearer token. The in-memory copy is authoritative
// once filled; durable storage is mirrored on every write so a restarted
// process finds the session again.
type Store struct {
	storage storage.Store
	logger  zerolog.Logger

	mu     sync.RWMutex
	cached string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for hydration logs.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store mirroring into durable. Nothing is read until the
// first Get.
func NewStore(durable storage.Store, options ...StoreOption) *Store {
	s := &Store{
		storage: durable,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Set stores token in memory and under every token key. An empty token
// removes all token keys together.
func (s *Store) Set(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" {
		s.cached = ""
		if err := s.storage.Delete(ctx, storage.TokenKeys...); err != nil {
			return fmt.Errorf("token.Store.Set delete: %w", err)
		}
		return nil
	}

	for _, key := range storage.TokenKeys {
		if err := s.storage.Set(ctx, key, token); err != nil {
			// Never leave one key holding a token the other does not.
			_ = s.storage.Delete(ctx, storage.TokenKeys...)
			s.cached = ""
			return fmt.Errorf("token.Store.Set %s: %w", key, err)
		}
	}
	s.cached = token
	return nil
}

// Get returns the current token or "" when there is none. A cache miss
// hydrates from durable storage, first key holding a value wins.
func (s *Store) Get(ctx context.Context) (string, error) {
	s.mu.RLock()
	token := s.cached
	s.mu.RUnlock()
	if token != "" {
		return token, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached != "" {
		return s.cached, nil
	}

	for _, key := range storage.TokenKeys {
		value, err := s.storage.Get(ctx, key)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("token.Store.Get %s: %w", key, err)
		}
		if value == "" {
			continue
		}
		s.logger.Debug().Str("key", key).Msg("token hydrated from storage")
		s.cached = value
		return value, nil
	}
	return "", nil
}

// Clear removes the in-memory token, every durable token copy and the cached
// user profile.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = ""
	if err := s.storage.Delete(ctx, storage.SessionKeys...); err != nil {
		return fmt.Errorf("token.Store.Clear: %w", err)
	}
	return nil
}
