package users

import (
	"context"
	"encoding/json"

	apperrors "github.com/jrsteele09/go-cert-console/internal/errors"
	"github.com/jrsteele09/go-cert-console/storage"
)

// ProfileCache keeps the signed-in user's profile under
// storage.KeyUserProfile. The token store clears the same key on logout.
type ProfileCache struct {
	durable storage.Store
}

// NewProfileCache creates a ProfileCache backed by durable.
func NewProfileCache(durable storage.Store) *ProfileCache {
	return &ProfileCache{durable: durable}
}

// Save stores profile. A nil profile clears the cache.
func (c *ProfileCache) Save(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return c.Clear(ctx)
	}
	data, err := json.Marshal(profile)
	if err != nil {
		return apperrors.Wrapf(err, "marshal profile")
	}
	return c.durable.Set(ctx, storage.KeyUserProfile, string(data))
}

// Load returns nil without error when no profile is cached. A cached value
// that no longer decodes is dropped and reported as absent.
func (c *ProfileCache) Load(ctx context.Context) (*Profile, error) {
	raw, err := c.durable.Get(ctx, storage.KeyUserProfile)
	if apperrors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "read profile")
	}

	var profile Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		_ = c.durable.Delete(ctx, storage.KeyUserProfile)
		return nil, nil
	}
	return &profile, nil
}

// Clear removes the cached profile.
func (c *ProfileCache) Clear(ctx context.Context) error {
	return c.durable.Delete(ctx, storage.KeyUserProfile)
}
