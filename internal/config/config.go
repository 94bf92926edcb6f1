package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the console client configuration. It is loaded from environment
// variables, with an optional .env file for development.
type Config struct {
	Env      string `env:"ENV"       envDefault:"DEV"`
	AppName  string `env:"APP_NAME"  envDefault:"Cert Console"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	Gateway GatewayConfig
	Session SessionConfig
	Storage StorageConfig `envPrefix:"STORAGE_"`
	Login   LoginConfig   `envPrefix:"CONSOLE_"`
}

// GatewayConfig controls how backend calls are issued.
type GatewayConfig struct {
	BaseURL   string        `env:"API_BASE_URL"       envDefault:"http://localhost:8000"`
	Timeout   time.Duration `env:"GATEWAY_TIMEOUT"    envDefault:"30s"`
	RateLimit float64       `env:"GATEWAY_RATE_LIMIT" envDefault:"0"`
	RateBurst int           `env:"GATEWAY_RATE_BURST" envDefault:"1"`

	// TenantHeader, when set, names the header that carries the active tenant
	// id on every call. Empty leaves requests unscoped.
	TenantHeader string `env:"TENANT_HEADER"`
}

// SessionConfig controls session termination.
type SessionConfig struct {
	LoginPath    string        `env:"SESSION_LOGIN_PATH"    envDefault:"/login"`
	ExpiryLeeway time.Duration `env:"SESSION_EXPIRY_LEEWAY" envDefault:"0s"`
}

// StorageConfig selects the durable storage driver.
type StorageConfig struct {
	Driver        string        `env:"DRIVER"         envDefault:"sqlite"`
	SQLiteDSN     string        `env:"SQLITE_DSN"     envDefault:"file:cert-console.db?cache=shared"`
	RedisAddr     string        `env:"REDIS_ADDR"     envDefault:"localhost:6379"`
	RedisUsername string        `env:"REDIS_USERNAME"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB"       envDefault:"0"`
	RedisPrefix   string        `env:"REDIS_PREFIX"   envDefault:"cert-console:"`
	RedisTimeout  time.Duration `env:"REDIS_TIMEOUT"  envDefault:"5s"`
}

// LoginConfig holds optional credentials used by the CLI.
type LoginConfig struct {
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
}

// New returns the defaults without reading the environment.
func New() Config {
	var cfg Config
	_ = env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	cfg.Sanitize()
	return cfg
}

// Load reads the .env file if one exists and parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return Config{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.Sanitize()
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from the environment.
func (c *Config) Sanitize() {
	c.Env = strings.ToUpper(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = "DEV"
	}
	c.Gateway.BaseURL = strings.TrimRight(c.Gateway.BaseURL, "/")
	if c.Gateway.Timeout < 0 {
		c.Gateway.Timeout = 0
	}
	if c.Gateway.RateLimit < 0 {
		c.Gateway.RateLimit = 0
	}
	if c.Gateway.RateBurst < 1 {
		c.Gateway.RateBurst = 1
	}
	if c.Session.LoginPath == "" {
		c.Session.LoginPath = "/login"
	}
	if c.Session.ExpiryLeeway < 0 {
		c.Session.ExpiryLeeway = 0
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
}

// IsDev reports whether the client runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "DEV"
}
