// Package identityservice owns the current identity of the client session
// and the one-time migration of guest-scoped collections at login.
package identityservice

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atelierline/storesync/libkv"
	"github.com/atelierline/storesync/storetypes"
)

var ErrInvalidToken = errors.New("identityservice: invalid session token")

// Service tracks the active identity. Login must complete (including
// migration) before any collection is read under the new scope; logout only
// deselects the user scope, it never deletes it.
type Service interface {
	// Login derives the user identity from a session token issued by the
	// backend, migrates guest-scoped collections into the user scope, and
	// makes the identity current.
	Login(ctx context.Context, token string) (storetypes.Identity, error)
	Logout(ctx context.Context)
	Identity() storetypes.Identity
	Token() string
}

type service struct {
	mu      sync.RWMutex
	current storetypes.Identity
	token   string
	kv      libkv.Executor
}

// New creates a session starting as the anonymous identity.
func New(kv libkv.Executor) Service {
	return &service{kv: kv}
}

func (s *service) Login(ctx context.Context, token string) (storetypes.Identity, error) {
	userID, err := subjectFromToken(token)
	if err != nil {
		return storetypes.Anonymous(), err
	}
	identity := storetypes.User(userID)

	// Migration runs before the identity becomes visible so the first read
	// under the user scope already sees the migrated data.
	if err := migrateGuestScope(ctx, s.kv, identity); err != nil {
		return storetypes.Anonymous(), fmt.Errorf("identityservice: login migration: %w", err)
	}

	s.mu.Lock()
	s.current = identity
	s.token = token
	s.mu.Unlock()
	return identity, nil
}

func (s *service) Logout(ctx context.Context) {
	s.mu.Lock()
	s.current = storetypes.Anonymous()
	s.token = ""
	s.mu.Unlock()
}

func (s *service) Identity() storetypes.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// subjectFromToken extracts the user id from the token's subject claim. The
// token was issued and verified by the backend; the client only decodes it.
func subjectFromToken(token string) (string, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: missing subject claim", ErrInvalidToken)
	}
	return subject, nil
}
