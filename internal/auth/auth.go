// Package auth holds the bearer-token session shared by the REST client and
// the realtime socket dialer.
package auth

import (
	"errors"
	"sync"
)

// ErrNoToken is returned when a session is used before login.
var ErrNoToken = errors.New("no session token")

// Credentials identify a user for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	if c.Email == "" {
		return errors.New("email is required")
	}
	if c.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// Session stores the current bearer token. The zero value is an anonymous
// session and is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	token string
}

// NewSession creates a session, optionally pre-seeded with a token.
func NewSession(token string) *Session {
	return &Session{token: token}
}

// Token returns the current token, or "" when anonymous.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken replaces the current token.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear drops the token, e.g. after logout or a 401.
func (s *Session) Clear() {
	s.SetToken("")
}

// Authenticated reports whether a token is set.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Headers returns the Authorization header for the current token. An
// anonymous session yields nil.
func (s *Session) Headers() map[string]string {
	token := s.Token()
	if token == "" {
		return nil
	}
	return map[string]string{
		"Authorization": "Bearer " + token,
	}
}
