// Package session holds the authentication token shared by every request
// wrapper built from it.
//
// A Session is created once per run and passed explicitly; there is no
// package level instance. All methods are safe for concurrent use.
package session

import (
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	srvErrors "github.com/qaharness/api-test-framework/pkg/errors"
)

// minValidLength is the shortest token considered usable.
const minValidLength = 10

type Session struct {
	mu    sync.RWMutex
	token string
}

func New() *Session {
	return &Session{}
}

// SetToken replaces the current token. Surrounding whitespace is dropped.
func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return srvErrors.NewValidationError("token", "must not be empty")
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	zap.S().Named("session").Debugw("token set", "length", len(token))

	return nil
}

func (s *Session) Token() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", srvErrors.NewTokenNotSetError()
	}
	return s.token, nil
}

func (s *Session) ClearToken() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	zap.S().Named("session").Debug("token cleared")
}

// IsValid reports whether a token is set and longer than ten characters.
// It does not contact the issuer.
func (s *Session) IsValid() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.token) > minValidLength
}

// Claims decodes the token as a JWT without verifying its signature.
func (s *Session) Claims() (jwt.MapClaims, error) {
	token, err := s.Token()
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, srvErrors.NewValidationError("token", "not a jwt: %v", err)
	}

	return claims, nil
}
