package console_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-cert-console/console"
	"github.com/jrsteele09/go-cert-console/gateway"
	"github.com/jrsteele09/go-cert-console/internal/config"
	"github.com/jrsteele09/go-cert-console/sessions"
	"github.com/jrsteele09/go-cert-console/storage"
	"github.com/jrsteele09/go-cert-console/token/jwt/jwttest"
	"github.com/stretchr/testify/require"
)

func newConfig(baseURL string) config.Config {
	cfg := config.New()
	cfg.Gateway.BaseURL = baseURL
	cfg.Storage.Driver = storage.DriverMemory
	return cfg
}

type recorder struct {
	mu    sync.Mutex
	paths []string
	ends  []sessions.TerminatedEvent
}

func (r *recorder) navigate(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *recorder) terminated(evt sessions.TerminatedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends = append(r.ends, evt)
}

func TestExpiredSessionNavigatesToLogin(t *testing.T) {
	ctx := context.Background()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	}))
	defer srv.Close()

	cfg := newConfig(srv.URL)
	cfg.Session.LoginPath = "/signin"
	c, err := console.New(ctx, cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close(ctx)) }()

	rec := &recorder{}
	require.NoError(t, c.OnNavigate(rec.navigate))
	require.NoError(t, c.OnTerminated(rec.terminated))

	require.NoError(t, c.Tokens.Set(ctx, jwttest.ExpiredToken(t)))
	_, err = c.Gateway.Request(ctx, "/api/certificates", gateway.RequestOptions{})
	require.ErrorIs(t, err, gateway.ErrSessionExpired)

	require.Equal(t, []string{"/signin"}, rec.paths)
	require.Len(t, rec.ends, 1)
	require.Equal(t, sessions.ReasonLocalExpiry, rec.ends[0].Reason)
}

func TestTenantHeaderFollowsSelection(t *testing.T) {
	ctx := context.Background()
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Tenant-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := newConfig(srv.URL)
	cfg.Gateway.TenantHeader = "X-Tenant-ID"
	c, err := console.New(ctx, cfg)
	require.NoError(t, err)

	_, err = c.Gateway.Request(ctx, "/api/cas", gateway.RequestOptions{})
	require.NoError(t, err)
	require.Equal(t, "acme-corp", got)

	require.NoError(t, c.Tenants.SetActive(ctx, "globex"))
	_, err = c.Gateway.Request(ctx, "/api/cas", gateway.RequestOptions{})
	require.NoError(t, err)
	require.Equal(t, "globex", got)
}

func TestUnscopedByDefault(t *testing.T) {
	ctx := context.Background()
	var header http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, err := console.New(ctx, newConfig(srv.URL))
	require.NoError(t, err)

	_, err = c.Gateway.Request(ctx, "/api/cas", gateway.RequestOptions{})
	require.NoError(t, err)
	require.Empty(t, header.Get("X-Tenant-ID"))
}

func TestSharedStorageSurvivesReload(t *testing.T) {
	ctx := context.Background()
	durable := storage.NewMemory()
	cfg := newConfig("http://127.0.0.1:1")

	first, err := console.New(ctx, cfg, console.WithStorage(durable))
	require.NoError(t, err)
	raw := jwttest.TokenExpiringAt(t, time.Now().Add(time.Hour))
	require.NoError(t, first.Tokens.Set(ctx, raw))
	require.NoError(t, first.Tenants.SetActive(ctx, "initech"))
	require.NoError(t, first.Close(ctx))

	second, err := console.New(ctx, cfg, console.WithStorage(durable))
	require.NoError(t, err)
	require.True(t, second.Auth.IsAuthenticated(ctx))
	active, err := second.Tenants.Active(ctx)
	require.NoError(t, err)
	require.Equal(t, "initech", active.ID)
}

func TestSQLiteDriver(t *testing.T) {
	ctx := context.Background()
	cfg := newConfig("http://127.0.0.1:1")
	cfg.Storage.Driver = storage.DriverSQLite
	cfg.Storage.SQLiteDSN = fmt.Sprintf("file:console-%d?mode=memory&cache=shared", time.Now().UnixNano())

	c, err := console.New(ctx, cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, c.Close(ctx)) }()

	raw := jwttest.ValidToken(t)
	require.NoError(t, c.Tokens.Set(ctx, raw))
	stored, err := c.Storage.Get(ctx, storage.KeyLegacyToken)
	require.NoError(t, err)
	require.Equal(t, raw, stored)
}

func TestUnsupportedDriver(t *testing.T) {
	cfg := newConfig("http://127.0.0.1:1")
	cfg.Storage.Driver = "etcd"

	_, err := console.New(context.Background(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported storage driver")
}

func TestLeewayFromConfig(t *testing.T) {
	cfg := newConfig("http://127.0.0.1:1")
	cfg.Session.ExpiryLeeway = time.Minute
	c, err := console.New(context.Background(), cfg)
	require.NoError(t, err)

	raw, err := jwttest.NewSigner("secret").Sign(jwtlib.MapClaims{"exp": time.Now().Add(-10 * time.Second).Unix()})
	require.NoError(t, err)
	require.False(t, c.Expiry.IsExpired(raw))
}
