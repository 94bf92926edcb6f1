package tenants

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/go-cert-console/internal/errors"
	"github.com/jrsteele09/go-cert-console/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Selection tracks which catalog tenant is active. The choice is persisted
// under storage.KeySelectedTenant so it survives restarts.
type Selection struct {
	catalog Catalog
	durable storage.Store
	logger  zerolog.Logger

	mu       sync.Mutex
	activeID string
	loaded   bool
}

// SelectionOption configures a Selection.
type SelectionOption func(*Selection)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(logger zerolog.Logger) SelectionOption {
	return func(s *Selection) {
		s.logger = logger
	}
}

// NewSelection creates a Selection over catalog persisting into durable.
func NewSelection(catalog Catalog, durable storage.Store, options ...SelectionOption) *Selection {
	s := &Selection{
		catalog: catalog,
		durable: durable,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Active returns the selected tenant, falling back to the first catalog entry
// when nothing is stored or the stored id is no longer in the catalog.
func (s *Selection) Active(ctx context.Context) (Tenant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		id, err := s.durable.Get(ctx, storage.KeySelectedTenant)
		switch {
		case err == nil:
			s.activeID = id
		case apperrors.Is(err, storage.ErrNotFound):
			s.activeID = ""
		default:
			return Tenant{}, apperrors.Wrapf(err, "read selected tenant")
		}
		s.loaded = true
	}

	if s.activeID != "" {
		if t, err := s.catalog.Get(s.activeID); err == nil {
			return t, nil
		}
		s.logger.Warn().Str("tenant_id", s.activeID).Msg("Active: stored tenant not in catalog, using first entry")
	}

	entries := s.catalog.List()
	if len(entries) == 0 {
		return Tenant{}, ErrEmptyCatalog
	}
	return entries[0], nil
}

// ActiveID is Active reduced to the tenant id.
func (s *Selection) ActiveID(ctx context.Context) (string, error) {
	t, err := s.Active(ctx)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}

// SetActive persists tenantID. Ids missing from the catalog are rejected and
// the stored selection is left as it was.
func (s *Selection) SetActive(ctx context.Context, tenantID string) error {
	if _, err := s.catalog.Get(tenantID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.durable.Set(ctx, storage.KeySelectedTenant, tenantID); err != nil {
		return apperrors.Wrapf(err, "persist selected tenant")
	}
	s.activeID = tenantID
	s.loaded = true
	return nil
}

// List returns the catalog entries in order.
func (s *Selection) List() []Tenant {
	return s.catalog.List()
}
