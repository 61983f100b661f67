package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ticketly-client/internal/auth"
	"ticketly-client/internal/clock"
	"ticketly-client/internal/logger"
	"ticketly-client/internal/models"
)

var ErrNoSession = errors.New("no active session")

// expiryLeeway keeps the client from sending a token that will expire in flight.
const expiryLeeway = 30 * time.Second

// Record is the persisted form of a login.
type Record struct {
	Profile   string
	Token     string
	TokenType string
	User      *models.User
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store persists the session between process runs. Load returns nil, nil
// when the profile has no session.
type Store interface {
	Load(ctx context.Context, profile string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, profile string) error
}

// Manager owns the session of one profile. It is created once and handed
// to everything that needs the token or the current user.
type Manager struct {
	mu      sync.RWMutex
	store   Store
	profile string
	clock   clock.Clock
	logger  *logger.Logger

	current *Record
	claims  auth.Claims
	hooks   []func()
}

func NewManager(store Store, profile string, log *logger.Logger) *Manager {
	if profile == "" {
		profile = "default"
	}
	return &Manager{
		store:   store,
		profile: profile,
		clock:   clock.Real(),
		logger:  log,
	}
}

// WithClock swaps the clock used for expiry checks.
func (m *Manager) WithClock(c clock.Clock) *Manager {
	m.clock = c
	return m
}

func (m *Manager) Profile() string { return m.profile }

// Restore loads a previously saved session. An expired session is torn
// down and reported as ErrNoSession.
func (m *Manager) Restore(ctx context.Context) error {
	rec, err := m.store.Load(ctx, m.profile)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", m.profile, err)
	}
	if rec == nil || rec.Token == "" {
		return ErrNoSession
	}

	claims, err := auth.ParseClaims(rec.Token)
	if err != nil {
		m.logger.LogSecurity("RESTORE", fmt.Sprintf("Discarding unreadable token for profile %s: %v", m.profile, err))
		m.discard(ctx)
		return ErrNoSession
	}
	if claims.Expired(m.clock.Now(), expiryLeeway) {
		m.logger.LogSession("RESTORE", fmt.Sprintf("Session for profile %s expired at %s", m.profile, claims.ExpiresAt.Format(time.RFC3339)))
		m.discard(ctx)
		return ErrNoSession
	}

	m.mu.Lock()
	m.current = rec
	m.claims = claims
	m.mu.Unlock()

	m.logger.LogSession("RESTORE", fmt.Sprintf("Restored session for user %s", claims.UserID))
	return nil
}

// Init starts a session after a successful login.
func (m *Manager) Init(ctx context.Context, token, tokenType string) error {
	claims, err := auth.ParseClaims(token)
	if err != nil {
		return fmt.Errorf("login returned an unusable token: %w", err)
	}

	rec := &Record{
		Profile:   m.profile,
		Token:     token,
		TokenType: tokenType,
		CreatedAt: m.clock.Now().UTC(),
		ExpiresAt: claims.ExpiresAt,
	}
	if err := m.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	m.mu.Lock()
	m.current = rec
	m.claims = claims
	m.mu.Unlock()

	m.logger.LogSession("INIT", fmt.Sprintf("Session started for user %s (%s)", claims.UserID, claims.Role))
	return nil
}

// SetUser attaches the profile fetched after login.
func (m *Manager) SetUser(ctx context.Context, user models.User) error {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return ErrNoSession
	}
	u := user
	m.current.User = &u
	rec := *m.current
	m.mu.Unlock()

	if err := m.store.Save(ctx, &rec); err != nil {
		return fmt.Errorf("failed to save session user: %w", err)
	}
	return nil
}

// discard drops a stored record that cannot be restored.
func (m *Manager) discard(ctx context.Context) {
	if err := m.store.Delete(ctx, m.profile); err != nil {
		m.logger.Warn("SESSION", fmt.Sprintf("Failed to delete stale session for profile %s: %v", m.profile, err))
	}
}

// Teardown ends the session: the stored record is deleted and every
// OnTeardown hook runs. Safe to call without a session.
func (m *Manager) Teardown(ctx context.Context) error {
	m.mu.Lock()
	hadSession := m.current != nil
	m.current = nil
	m.claims = auth.Claims{}
	hooks := append([]func(){}, m.hooks...)
	m.mu.Unlock()

	err := m.store.Delete(ctx, m.profile)
	if err != nil {
		err = fmt.Errorf("failed to delete session: %w", err)
	}

	if hadSession {
		m.logger.LogSession("TEARDOWN", fmt.Sprintf("Session for profile %s cleared", m.profile))
		for _, hook := range hooks {
			hook()
		}
	}
	return err
}

// OnTeardown registers a hook that runs after the session is cleared.
func (m *Manager) OnTeardown(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, fn)
}

// Token returns the bearer token of the current session.
func (m *Manager) Token() (tokenType, token string, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", "", false
	}
	return m.current.TokenType, m.current.Token, true
}

func (m *Manager) User() (models.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.User == nil {
		return models.User{}, false
	}
	return *m.current.User, true
}

func (m *Manager) Claims() auth.Claims {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.claims
}

// Expired reports whether the current token is past its expiry. No session
// counts as expired.
func (m *Manager) Expired() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return true
	}
	return m.claims.Expired(m.clock.Now(), expiryLeeway)
}

func (m *Manager) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}

// IsAdmin prefers the fetched profile and falls back to the token's role.
func (m *Manager) IsAdmin() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return false
	}
	if m.current.User != nil {
		return m.current.User.IsAdmin()
	}
	return m.claims.Role == string(models.RoleAdmin)
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Load(_ context.Context, profile string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[profile]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Profile] = *rec
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, profile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, profile)
	return nil
}
