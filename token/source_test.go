package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-cert-console/storage"
	"github.com/jrsteele09/go-cert-console/token"
	"github.com/jrsteele09/go-cert-console/token/jwt"
	"github.com/jrsteele09/go-cert-console/token/jwt/jwttest"
	"github.com/stretchr/testify/require"
)

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	oracle := jwt.NewExpiryOracle()

	t.Run("no token", func(t *testing.T) {
		ts := token.NewStore(storage.NewMemory()).TokenSource(ctx, oracle)
		_, err := ts.Token()
		require.ErrorIs(t, err, token.ErrNoToken)
	})

	t.Run("valid token carries exp", func(t *testing.T) {
		exp := time.Now().Add(time.Hour).Truncate(time.Second)
		raw := jwttest.TokenExpiringAt(t, exp)
		store := token.NewStore(storage.NewMemory())
		require.NoError(t, store.Set(ctx, raw))

		tok, err := store.TokenSource(ctx, oracle).Token()
		require.NoError(t, err)
		require.Equal(t, raw, tok.AccessToken)
		require.Equal(t, "Bearer", tok.TokenType)
		require.True(t, exp.Equal(tok.Expiry))
		require.True(t, tok.Valid())
	})

	t.Run("malformed token is invalid", func(t *testing.T) {
		store := token.NewStore(storage.NewMemory())
		require.NoError(t, store.Set(ctx, "opaque-token"))

		tok, err := store.TokenSource(ctx, oracle).Token()
		require.NoError(t, err)
		require.False(t, tok.Valid())
	})
}
