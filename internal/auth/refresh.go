package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Refresh a token this long before it would lapse, so a request never
// races the expiry.
const expiryMargin = 90 * time.Second

// persistedSource delegates refresh to the oauth2 reuse source and
// writes every rotated token through save before handing it out, so a
// crash after a refresh never strands the store on a revoked token.
type persistedSource struct {
	inner oauth2.TokenSource
	save  func(*oauth2.Token) error

	mu   sync.Mutex
	seen string // access token already persisted
}

// NewTokenSource wraps cfg's refresh flow around the stored token.
// save is called once per rotation; a save failure fails the request
// that triggered the refresh.
func NewTokenSource(cfg *oauth2.Config, stored *oauth2.Token, save func(*oauth2.Token) error) oauth2.TokenSource {
	refresh := cfg.TokenSource(context.Background(), stored)
	return &persistedSource{
		inner: oauth2.ReuseTokenSourceWithExpiry(stored, refresh, expiryMargin),
		save:  save,
		seen:  stored.AccessToken,
	}
}

func (s *persistedSource) Token() (*oauth2.Token, error) {
	tok, err := s.inner.Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.seen {
		return tok, nil
	}
	if s.save != nil {
		if err := s.save(tok); err != nil {
			return nil, fmt.Errorf("persisting refreshed token: %w", err)
		}
	}
	s.seen = tok.AccessToken
	return tok, nil
}
