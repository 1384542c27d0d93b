package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// ErrNoAccessToken is returned when establishing a session without a token.
var ErrNoAccessToken = errors.New("session has no access token")

// Manager owns the current session and its persisted copy.
//
// Thread-safety: all methods are safe for concurrent use. Readers only
// ever see a complete session or none.
type Manager struct {
	mu      sync.RWMutex
	current *Session

	store      Store
	passphrase string
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithPassphrase seals the persisted session with a key derived from
// passphrase. An empty passphrase stores the session as plain JSON.
func WithPassphrase(passphrase string) Option {
	return func(m *Manager) {
		m.passphrase = passphrase
	}
}

// WithClock overrides the wall clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager persisting through store.
// The manager starts empty; call Load to pick up a persisted session.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var _ Provider = (*Manager)(nil)

// CurrentSession returns the session if one is established.
func (m *Manager) CurrentSession() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Expired reports whether the current session exists and is past expiry.
func (m *Manager) Expired() bool {
	s, ok := m.CurrentSession()
	return ok && s.Expired(m.now())
}

// Load reads the persisted session, if any, and makes it current.
// A session that cannot be decoded is removed from the store and
// reported as absent together with the decode error. A session sealed
// with another passphrase is reported the same way but kept.
func (m *Manager) Load(ctx context.Context) (Session, bool, error) {
	raw, ok, err := m.store.Get(ctx, StorageKey)
	if err != nil {
		return Session{}, false, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		m.logger.Debug("no persisted session")
		return Session{}, false, nil
	}

	s, err := m.decode(raw)
	if errors.Is(err, ErrWrongPassphrase) {
		m.logger.Warn("cannot open stored session with this passphrase", "error", err)
		return Session{}, false, err
	}
	if err != nil {
		m.logger.Warn("discarding unreadable session", "error", err)
		if delErr := m.store.Delete(ctx, StorageKey); delErr != nil {
			return Session{}, false, fmt.Errorf("remove unreadable session: %w", delErr)
		}
		return Session{}, false, err
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	m.logger.Debug("session restored", "user", s.User.Email, "expires_at", s.ExpiresAt)
	return s, true, nil
}

// Establish persists s and makes it current.
func (m *Manager) Establish(ctx context.Context, s Session) error {
	if !s.Valid() {
		return ErrNoAccessToken
	}
	raw, err := m.encode(s)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, StorageKey, raw); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	m.logger.Debug("session established", "user", s.User.Email)
	return nil
}

// Clear forgets the current session and removes the persisted copy.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	m.logger.Debug("session cleared")
	return nil
}

func (m *Manager) encode(s Session) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	if m.passphrase == "" {
		return raw, nil
	}
	return seal(m.passphrase, raw)
}

func (m *Manager) decode(raw []byte) (Session, error) {
	plain := raw
	if m.passphrase != "" {
		var err error
		if plain, err = open(m.passphrase, raw); err != nil {
			return Session{}, err
		}
	}
	var s Session
	if err := json.Unmarshal(plain, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if !s.Valid() {
		return Session{}, ErrNoAccessToken
	}
	return s, nil
}
