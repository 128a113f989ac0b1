package auth

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource yields the bearer credential attached to every data service
// request.
type TokenSource interface {
	Token() string
}

// StaticTokenSource always returns the same credential
type StaticTokenSource struct {
	token string
}

// NewStaticTokenSource creates a TokenSource for a fixed credential
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

// Token returns the static credential
func (s *StaticTokenSource) Token() string {
	return s.token
}

// SessionTokenSource yields the live session credential while one is set and
// unexpired, and falls back to the static public key otherwise. The public
// key carries read-only-equivalent privilege server-side.
type SessionTokenSource struct {
	mu        sync.RWMutex
	session   string
	publicKey string
}

// NewSessionTokenSource creates a SessionTokenSource with the given fallback
// public key
func NewSessionTokenSource(publicKey string) *SessionTokenSource {
	return &SessionTokenSource{publicKey: publicKey}
}

// SetSession installs the session credential obtained from the identity
// provider
func (s *SessionTokenSource) SetSession(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = token
}

// ClearSession drops the session credential, reverting to the public key
func (s *SessionTokenSource) ClearSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = ""
}

// Token returns the session credential when live, else the public key
func (s *SessionTokenSource) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session != "" && sessionUsable(s.session) {
		return s.session
	}
	return s.publicKey
}

// sessionUsable reports whether the session credential should still be
// attached. The credential is opaque to us; when it happens to be a JWT we
// check its expiry claim so a stale session degrades to the public key
// instead of producing 401s downstream. Signature verification belongs to
// the identity provider, not here.
func sessionUsable(token string) bool {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(token, claims)
	if err != nil {
		// Not a JWT: treat as an opaque credential and pass it through
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return exp.After(time.Now())
}
