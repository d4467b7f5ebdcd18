// Package session holds the storefront's per-customer persisted selections:
// the auth/guest tokens and the selected shipping address. It replaces the
// scattered browser-storage reads of the original flow with a single owner
// responsible for invalidation on logout.
package session

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrNotFound indicates the session id has no live state.
var ErrNotFound = errors.New("session: not found")

// Values is the read-mostly state shared by the checkout components. It is
// written only at login/logout and at address-selection time.
type Values struct {
	Token             string
	GuestToken        string
	SelectedAddressID string
	UpdatedAt         time.Time
}

// AuthToken returns the customer token, falling back to the guest token for
// guest checkout.
func (v Values) AuthToken() string {
	if strings.TrimSpace(v.Token) != "" {
		return v.Token
	}
	return v.GuestToken
}

// Store keeps session values in memory keyed by session id. Persistent storage
// is owned by the remote commerce API; this store only mirrors the handful of
// keys the checkout flow needs between requests.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]Values
}

// NewStore constructs a Store with the provided time-to-live per session.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]Values),
	}
}

// WithClock overrides the store clock (used in tests).
func (s *Store) WithClock(clock func() time.Time) *Store {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Get returns the current values for the session. Components must call Get at
// the point of use rather than caching a copy across remote calls, so a logout
// happening between calls is observed.
func (s *Store) Get(sessionID string) (Values, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Values{}, ErrNotFound
	}

	s.mu.RLock()
	values, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return Values{}, ErrNotFound
	}
	if s.expired(values) {
		s.Logout(sessionID)
		return Values{}, ErrNotFound
	}
	return values, nil
}

// SetTokens records the customer and guest tokens at login time. Expired
// customer tokens are dropped rather than stored.
func (s *Store) SetTokens(sessionID, token, guestToken string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	if tokenExpired(token, s.now()) {
		token = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	values := s.sessions[sessionID]
	values.Token = strings.TrimSpace(token)
	values.GuestToken = strings.TrimSpace(guestToken)
	values.UpdatedAt = s.now()
	s.sessions[sessionID] = values
}

// SelectAddress persists the shipping address chosen during checkout; it is
// read back by payment reconciliation after the gateway redirect returns.
func (s *Store) SelectAddress(sessionID, addressID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	values, ok := s.sessions[sessionID]
	if !ok {
		values = Values{}
	}
	values.SelectedAddressID = strings.TrimSpace(addressID)
	values.UpdatedAt = s.now()
	s.sessions[sessionID] = values
}

// Logout clears the session entirely: tokens and address selection together.
func (s *Store) Logout(sessionID string) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

func (s *Store) expired(values Values) bool {
	if values.UpdatedAt.IsZero() {
		return false
	}
	return s.now().Sub(values.UpdatedAt) > s.ttl
}
