package token

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// ExpiryReader reports when a raw token expires.
type ExpiryReader interface {
	ExpiresAt(rawToken string) (time.Time, error)
}

var ErrNoToken = errors.New("no token stored")

type storeSource struct {
	ctx    context.Context
	store  *Store
	expiry ExpiryReader
}

// TokenSource exposes the stored token to code that speaks x/oauth2, for
// example an oauth2.Transport wrapping a streaming HTTP client. The token's
// Expiry comes from its exp claim; an undecodable token gets an expiry in
// the past so oauth2 treats it as invalid.
func (s *Store) TokenSource(ctx context.Context, expiry ExpiryReader) oauth2.TokenSource {
	return &storeSource{ctx: ctx, store: s, expiry: expiry}
}

func (ts *storeSource) Token() (*oauth2.Token, error) {
	raw, err := ts.store.Get(ts.ctx)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, ErrNoToken
	}
	tok := &oauth2.Token{
		AccessToken: raw,
		TokenType:   "Bearer",
	}
	exp, err := ts.expiry.ExpiresAt(raw)
	if err != nil {
		tok.Expiry = time.Unix(1, 0)
		return tok, nil
	}
	tok.Expiry = exp
	return tok, nil
}
