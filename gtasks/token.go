package gtasks

import (
	"context"
	"errors"
	"sync"
)

// ErrNoToken is returned when no credential is currently held.
var ErrNoToken = errors.New("no access token available")

// StaticToken is a TokenSource holding a single replaceable token, supplied
// by the external auth collaborator (OAuth flow, env, token file).
type StaticToken struct {
	mu    sync.RWMutex
	token string
}

// NewStaticToken creates a StaticToken seeded with the given value, which
// may be empty.
func NewStaticToken(token string) *StaticToken {
	return &StaticToken{token: token}
}

// Token returns the current token or ErrNoToken when unset.
func (s *StaticToken) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// Set replaces the held token. An empty value clears it, which makes all
// subsequent calls fail with an auth error (the logout state).
func (s *StaticToken) Set(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}
