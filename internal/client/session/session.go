// Package session holds the client's API credentials for the lifetime of the
// process: the access/refresh token pair and a stable client id used to
// exclude this process from its own push fan-out.
package session

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is safe for concurrent use; the transport reads it on every request
// while the refresh path replaces the token pair.
type Session struct {
	mu           sync.RWMutex
	accessToken  string
	refreshToken string
	clientID     string
}

func New() *Session {
	return &Session{clientID: uuid.NewString()}
}

// ClientID identifies this process to the push channel.
func (s *Session) ClientID() string {
	return s.clientID
}

// SetTokens installs a new access/refresh pair.
func (s *Session) SetTokens(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = access
	s.refreshToken = refresh
}

func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshToken
}

// Authenticated reports whether a token pair is present.
func (s *Session) Authenticated() bool {
	return s.AccessToken() != ""
}

// Clear wipes the token pair, e.g. after a failed refresh.
func (s *Session) Clear() {
	s.SetTokens("", "")
}

// ExpiresSoon reports whether the access token expires within the given
// window. The token is parsed without signature verification: the client only
// needs the expiry claim, validation is the server's job. Tokens without a
// readable expiry are never reported as expiring.
func (s *Session) ExpiresSoon(within time.Duration) bool {
	token := s.AccessToken()
	if token == "" {
		return false
	}

	parser := jwt.NewParser()
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return time.Until(claims.ExpiresAt.Time) < within
}
