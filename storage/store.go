package storage

import (
	"context"
	"time"

	apperrors "github.com/jrsteele09/go-cert-console/internal/errors"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = apperrors.ErrNotFound

// Store is the durable key/value storage the console persists its session
// state into. It plays the role browser local storage plays for a web console.
type Store interface {
	// Get returns the value for key or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Set writes value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes every key given. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error

	// Close releases any connection held by the driver
	Close(ctx context.Context) error
}

// Config describes the driver selection parameters.
type Config struct {
	Driver string
	SQLite *SQLiteConfig
	Redis  *RedisConfig
}

// SQLiteConfig provides the database location.
type SQLiteConfig struct {
	DSN string
}

// RedisConfig captures connection options.
type RedisConfig struct {
	Addr        string
	Username    string
	Password    string
	DB          int
	Prefix      string
	DialTimeout time.Duration
}
