package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-cert-console/auth"
	"github.com/jrsteele09/go-cert-console/gateway"
	"github.com/jrsteele09/go-cert-console/sessions"
	"github.com/jrsteele09/go-cert-console/storage"
	"github.com/jrsteele09/go-cert-console/token"
	"github.com/jrsteele09/go-cert-console/token/jwt"
	"github.com/jrsteele09/go-cert-console/token/jwt/jwttest"
	"github.com/jrsteele09/go-cert-console/users"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "ops@example.com"
	testPassword = "hunter22"
)

type testFixture struct {
	server   *httptest.Server
	hits     atomic.Int32
	durable  *storage.MemoryStore
	tokens   *token.Store
	coord    *sessions.Coordinator
	profiles *users.ProfileCache
	service  *auth.Service
}

func setupFixture(t *testing.T, handler http.HandlerFunc) *testFixture {
	t.Helper()
	f := &testFixture{}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(f.server.Close)

	oracle := jwt.NewExpiryOracle()
	f.durable = storage.NewMemory()
	f.tokens = token.NewStore(f.durable)
	f.coord = sessions.NewCoordinator(f.tokens)
	f.profiles = users.NewProfileCache(f.durable)
	gw := gateway.NewClient(f.server.URL, f.tokens, oracle, f.coord)
	f.service = auth.NewService(gw, f.tokens, oracle, f.coord, f.profiles)
	return f
}

func loginHandler(reply map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Method != http.MethodPost {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var creds auth.Credentials
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Password != testPassword {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"bad credentials"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply)
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	raw := jwttest.ValidToken(t)

	testCases := []struct {
		name  string
		reply map[string]any
	}{
		{name: "access_token", reply: map[string]any{"access_token": raw, "user": map[string]any{"id": "u1", "email": testEmail, "roles": []string{"admin"}}}},
		{name: "legacy token field", reply: map[string]any{"token": raw, "user": map[string]any{"id": "u1", "email": testEmail, "roles": []string{"admin"}}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupFixture(t, loginHandler(tc.reply))

			profile, err := f.service.Login(ctx, auth.Credentials{Email: testEmail, Password: testPassword})
			require.NoError(t, err)
			require.Equal(t, "u1", profile.ID)
			require.True(t, profile.IsAdmin())

			stored, err := f.tokens.Get(ctx)
			require.NoError(t, err)
			require.Equal(t, raw, stored)
			require.True(t, f.service.IsAuthenticated(ctx))

			current, err := f.service.CurrentUser(ctx)
			require.NoError(t, err)
			require.Equal(t, profile, current)
		})
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	f := setupFixture(t, loginHandler(map[string]any{"user": map[string]any{"id": "u1"}}))

	_, err := f.service.Login(context.Background(), auth.Credentials{Email: testEmail, Password: testPassword})
	require.ErrorIs(t, err, auth.ErrNoToken)
	require.False(t, f.service.IsAuthenticated(context.Background()))
}

func TestLoginRejectsMalformedToken(t *testing.T) {
	f := setupFixture(t, loginHandler(map[string]any{"access_token": "opaque-token"}))

	_, err := f.service.Login(context.Background(), auth.Credentials{Email: testEmail, Password: testPassword})
	require.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}

func TestLoginBadPassword(t *testing.T) {
	f := setupFixture(t, loginHandler(nil))

	_, err := f.service.Login(context.Background(), auth.Credentials{Email: testEmail, Password: "wrong"})
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	require.Contains(t, err.Error(), "bad credentials")
}

func TestLoginValidatesBeforeNetwork(t *testing.T) {
	testCases := []struct {
		name  string
		creds auth.Credentials
	}{
		{name: "empty email", creds: auth.Credentials{Password: testPassword}},
		{name: "no at sign", creds: auth.Credentials{Email: "ops.example.com", Password: testPassword}},
		{name: "no domain dot", creds: auth.Credentials{Email: "ops@example", Password: testPassword}},
		{name: "empty password", creds: auth.Credentials{Email: testEmail}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setupFixture(t, loginHandler(nil))
			_, err := f.service.Login(context.Background(), tc.creds)
			require.ErrorIs(t, err, auth.ErrInvalidCredentials)
			require.Equal(t, int32(0), f.hits.Load())
		})
	}
}

func TestLoginReplacesExpiredToken(t *testing.T) {
	ctx := context.Background()
	raw := jwttest.ValidToken(t)
	f := setupFixture(t, loginHandler(map[string]any{"access_token": raw}))
	require.NoError(t, f.tokens.Set(ctx, jwttest.ExpiredToken(t)))

	_, err := f.service.Login(ctx, auth.Credentials{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, int32(1), f.hits.Load())
	require.Equal(t, sessions.StateActive, f.coord.State())
}

func TestLogoutThenLogin(t *testing.T) {
	ctx := context.Background()
	raw := jwttest.ValidToken(t)
	f := setupFixture(t, loginHandler(map[string]any{"access_token": raw, "user": map[string]any{"id": "u1"}}))

	_, err := f.service.Login(ctx, auth.Credentials{Email: testEmail, Password: testPassword})
	require.NoError(t, err)

	f.service.Logout(ctx)
	require.Equal(t, sessions.StateTerminated, f.coord.State())
	require.False(t, f.service.IsAuthenticated(ctx))
	for _, key := range storage.SessionKeys {
		_, err := f.durable.Get(ctx, key)
		require.ErrorIs(t, err, storage.ErrNotFound)
	}

	current, err := f.service.CurrentUser(ctx)
	require.NoError(t, err)
	require.Nil(t, current)

	_, err = f.service.Login(ctx, auth.Credentials{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	require.Equal(t, sessions.StateActive, f.coord.State())
}

func TestIsAuthenticatedWithExpiredToken(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t, loginHandler(nil))
	require.NoError(t, f.tokens.Set(ctx, jwttest.ExpiredToken(t)))

	require.False(t, f.service.IsAuthenticated(ctx))
}

func TestLogoutKeepsSelectedTenant(t *testing.T) {
	ctx := context.Background()
	f := setupFixture(t, loginHandler(map[string]any{"access_token": jwttest.ValidToken(t)}))
	require.NoError(t, f.durable.Set(ctx, storage.KeySelectedTenant, "globex"))

	_, err := f.service.Login(ctx, auth.Credentials{Email: testEmail, Password: testPassword})
	require.NoError(t, err)
	f.service.Logout(ctx)

	tenantID, err := f.durable.Get(ctx, storage.KeySelectedTenant)
	require.NoError(t, err)
	require.Equal(t, "globex", tenantID)
}
