// Package session holds the current authenticated session and gates whether
// the rest of the application runs.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated session issued by the identity provider.
type Session struct {
	AccessToken string
	UserID      string
	Email       string
	ExpiresAt   time.Time
}

// Expired reports whether the session's access token has expired.
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}

// FromAccessToken builds a Session from a provider-issued JWT. The token is
// parsed unverified: the provider signed it and the data service verifies it;
// the client only needs the subject and expiry claims.
func FromAccessToken(token string) (*Session, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, err
	}

	s := &Session{AccessToken: token}
	if sub, err := claims.GetSubject(); err == nil {
		s.UserID = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		s.ExpiresAt = exp.Time
	}
	if email, ok := claims["email"].(string); ok {
		s.Email = email
	}
	return s, nil
}

// Gate holds session presence and fans out change notifications.
type Gate struct {
	mu        sync.RWMutex
	current   *Session
	listeners []func(*Session)
}

// NewGate returns an empty Gate (signed out).
func NewGate() *Gate {
	return &Gate{}
}

// Current returns the active session, or nil when signed out.
func (g *Gate) Current() *Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.current
}

// SignedIn reports whether a session is present.
func (g *Gate) SignedIn() bool {
	return g.Current() != nil
}

// Set replaces the current session and notifies listeners. Passing nil
// signals sign-out.
func (g *Gate) Set(s *Session) {
	g.mu.Lock()
	g.current = s
	listeners := append(([]func(*Session))(nil), g.listeners...)
	g.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

// Clear signs out.
func (g *Gate) Clear() {
	g.Set(nil)
}

// OnChange registers a callback invoked on every sign-in and sign-out.
func (g *Gate) OnChange(fn func(*Session)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listeners = append(g.listeners, fn)
}
