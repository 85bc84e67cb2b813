// Package session holds the bearer token of the signed-in user. The token
// is the only client state that outlives the process.
package session

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "pfa/internal/errors"
	"pfa/internal/logger"
)

// Reason says why a session was torn down.
type Reason string

const (
	ReasonLogout  Reason = "logout"
	ReasonExpired Reason = "expired"
)

// Observer is called after the token has been cleared.
type Observer func(Reason)

// Claims are the parts of the access token the client relies on. The
// signature is not checked here; the API does that on every request.
type Claims struct {
	UserID    int64
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now. Tokens
// without an exp claim never expire on the client.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// ParseClaims decodes the sub and exp claims of a JWT access token.
func ParseClaims(token string) (Claims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Claims{}, fmt.Errorf("parsing access token: %w", err)
	}

	var out Claims
	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return Claims{}, fmt.Errorf("invalid sub claim %q", sub)
		}
		out.UserID = id
	case float64:
		out.UserID = int64(sub)
	default:
		return Claims{}, fmt.Errorf("access token has no sub claim")
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Claims{}, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Session is the process-wide holder of the bearer token. It is safe for
// concurrent use; the gateway's transport reads and clears it.
type Session struct {
	mu        sync.RWMutex
	store     Store
	token     string
	claims    Claims
	observers []Observer
	now       func() time.Time
}

// New returns an empty session backed by store.
func New(store Store) *Session {
	return &Session{store: store, now: time.Now}
}

// Load restores a saved token. An unreadable or expired token is removed
// from the store and the session stays signed out.
func (s *Session) Load() error {
	token, err := s.store.Load()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrTokenStore, err)
	}
	if token == "" {
		return nil
	}

	claims, err := ParseClaims(token)
	if err != nil || claims.Expired(s.now()) {
		logger.Get().Infow("discarding saved session", "reason", "invalid or expired token")
		if err := s.store.Clear(); err != nil {
			return apperrors.Wrap(apperrors.ErrTokenStore, err)
		}
		return nil
	}

	s.mu.Lock()
	s.token, s.claims = token, claims
	s.mu.Unlock()
	return nil
}

// Login stores a freshly issued token.
func (s *Session) Login(token string) error {
	claims, err := ParseClaims(token)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrBadResponse, err)
	}
	if err := s.store.Save(token); err != nil {
		return apperrors.Wrap(apperrors.ErrTokenStore, err)
	}

	s.mu.Lock()
	s.token, s.claims = token, claims
	s.mu.Unlock()

	logger.Get().Infow("signed in", "user_id", claims.UserID)
	return nil
}

// Logout clears the token at the user's request.
func (s *Session) Logout() error {
	_, err := s.teardown(ReasonLogout)
	return err
}

// Expire clears the token after the API rejected it. It reports whether
// this call cleared it, so concurrent 401s tear the session down once.
func (s *Session) Expire() bool {
	cleared, err := s.teardown(ReasonExpired)
	if err != nil {
		logger.Get().Warnw("failed to clear saved token", "error", err)
	}
	return cleared
}

func (s *Session) teardown(reason Reason) (bool, error) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return false, nil
	}
	s.token, s.claims = "", Claims{}
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()

	err := s.store.Clear()
	logger.Get().Infow("session ended", "reason", reason)
	for _, fn := range observers {
		fn(reason)
	}
	if err != nil {
		return true, apperrors.Wrap(apperrors.ErrTokenStore, err)
	}
	return true, nil
}

// OnTeardown registers fn to run after every logout or expiry.
func (s *Session) OnTeardown(fn Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Token returns the bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// UserID returns the id of the signed-in user.
func (s *Session) UserID() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return 0, apperrors.ErrNotLoggedIn
	}
	return s.claims.UserID, nil
}
