package console

import (
	"context"
	"fmt"
	"net/http"

	evbus "github.com/asaskevich/EventBus"
	"github.com/jrsteele09/go-cert-console/auth"
	"github.com/jrsteele09/go-cert-console/gateway"
	"github.com/jrsteele09/go-cert-console/internal/config"
	"github.com/jrsteele09/go-cert-console/sessions"
	"github.com/jrsteele09/go-cert-console/storage"
	"github.com/jrsteele09/go-cert-console/tenants"
	"github.com/jrsteele09/go-cert-console/token"
	"github.com/jrsteele09/go-cert-console/token/jwt"
	"github.com/jrsteele09/go-cert-console/users"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Console is one mounted console session: everything that performs requests
// on behalf of the signed-in operator hangs off a single instance. Nothing is
// shared between instances except what their storage shares.
type Console struct {
	Config   config.Config
	Storage  storage.Store
	Tokens   *token.Store
	Expiry   *jwt.ExpiryOracle
	Sessions *sessions.Coordinator
	Gateway  *gateway.Client
	Tenants  *tenants.Selection
	Profiles *users.ProfileCache
	Auth     *auth.Service
	Bus      evbus.Bus

	ownsStorage bool
	logger      zerolog.Logger
}

type options struct {
	store      storage.Store
	catalog    tenants.Catalog
	httpClient *http.Client
	navigator  sessions.Navigator
	logger     *zerolog.Logger
}

// Option configures New.
type Option func(*options)

// WithStorage uses store instead of opening the configured driver. The
// caller keeps ownership and Close leaves it open.
func WithStorage(store storage.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithCatalog replaces the default tenant catalog.
func WithCatalog(catalog tenants.Catalog) Option {
	return func(o *options) {
		o.catalog = catalog
	}
}

// WithHTTPClient sets the HTTP client the gateway sends through.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithNavigator replaces the default bus navigator.
func WithNavigator(n sessions.Navigator) Option {
	return func(o *options) {
		o.navigator = n
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &logger
	}
}

// New builds a Console from cfg, opening the configured storage driver unless
// WithStorage supplies one.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Console, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	c := &Console{
		Config: cfg,
		Bus:    evbus.New(),
		logger: logger,
	}

	if o.store != nil {
		c.Storage = o.store
	} else {
		store, err := storage.New(ctx, StorageConfig(cfg.Storage))
		if err != nil {
			return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Driver, err)
		}
		c.Storage = store
		c.ownsStorage = true
	}

	navigator := o.navigator
	if navigator == nil {
		navigator = sessions.NewBusNavigator(c.Bus)
	}
	catalog := o.catalog
	if catalog == nil {
		catalog = tenants.DefaultCatalog()
	}

	c.Tokens = token.NewStore(c.Storage, token.WithLogger(logger))
	c.Expiry = jwt.NewExpiryOracle(jwt.WithLeeway(cfg.Session.ExpiryLeeway))
	c.Sessions = sessions.NewCoordinator(c.Tokens,
		sessions.WithNavigator(navigator),
		sessions.WithEventBus(c.Bus),
		sessions.WithLoginPath(cfg.Session.LoginPath),
		sessions.WithLogger(logger),
	)
	c.Tenants = tenants.NewSelection(catalog, c.Storage, tenants.WithLogger(logger))
	c.Profiles = users.NewProfileCache(c.Storage)

	gwOptions := []gateway.ClientOption{
		gateway.WithLogger(logger),
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithRateLimit(rate.Limit(cfg.Gateway.RateLimit), cfg.Gateway.RateBurst),
		gateway.WithTenantScope(c.Tenants, cfg.Gateway.TenantHeader),
	}
	if o.httpClient != nil {
		gwOptions = append(gwOptions, gateway.WithHTTPClient(o.httpClient))
	}
	c.Gateway = gateway.NewClient(cfg.Gateway.BaseURL, c.Tokens, c.Expiry, c.Sessions, gwOptions...)
	c.Auth = auth.NewService(c.Gateway, c.Tokens, c.Expiry, c.Sessions, c.Profiles, auth.WithLogger(logger))

	return c, nil
}

// OnNavigate subscribes fn to navigation requests raised by the session.
func (c *Console) OnNavigate(fn func(path string)) error {
	return c.Bus.Subscribe(sessions.TopicNavigate, fn)
}

// OnTerminated subscribes fn to session termination events. fn must not
// publish on the bus.
func (c *Console) OnTerminated(fn func(evt sessions.TerminatedEvent)) error {
	return c.Bus.Subscribe(sessions.TopicTerminated, fn)
}

// Close releases the storage opened by New.
func (c *Console) Close(ctx context.Context) error {
	if !c.ownsStorage {
		return nil
	}
	return c.Storage.Close(ctx)
}

// StorageConfig maps the environment driven settings onto the storage factory.
func StorageConfig(cfg config.StorageConfig) storage.Config {
	return storage.Config{
		Driver: cfg.Driver,
		SQLite: &storage.SQLiteConfig{DSN: cfg.SQLiteDSN},
		Redis: &storage.RedisConfig{
			Addr:        cfg.RedisAddr,
			Username:    cfg.RedisUsername,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			Prefix:      cfg.RedisPrefix,
			DialTimeout: cfg.RedisTimeout,
		},
	}
}
