// Package session owns the signed-in admin's lifecycle: set on login, read at mount, cleared on logout or expiry.
//
// Screens and commands receive a [*Manager] explicitly rather than reading storage themselves.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dhunjam/internal/models"
	"github.com/desertthunder/dhunjam/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// Store persists at most one session. Load returns nil, nil when empty.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s models.Session) error
	Clear(ctx context.Context) error
}

// Manager reads and writes the session through a [Store].
type Manager struct {
	store  Store
	logger *log.Logger
	now    func() time.Time
}

// NewManager creates a Manager over store.
func NewManager(store Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{store: store, logger: logger, now: time.Now}
}

// Current returns the signed-in session.
//
// It fails with [shared.ErrNotAuthenticated] when no session is stored, the token is empty, or the token
// is a JWT whose exp has passed. Expired sessions are cleared.
func (m *Manager) Current(ctx context.Context) (models.Session, error) {
	s, err := m.store.Load(ctx)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	if !s.Valid() {
		return models.Session{}, shared.ErrNotAuthenticated
	}

	if exp, ok := TokenExpiry(s.Token); ok && !exp.After(m.now()) {
		m.logger.Info("session expired", "admin_id", s.AdminID, "expired_at", exp)
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Warn("failed to clear expired session", "error", err)
		}
		return models.Session{}, fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, shared.ErrTokenExpired)
	}

	return *s, nil
}

// Set stores s as the current session.
func (m *Manager) Set(ctx context.Context, s models.Session) error {
	if !s.Valid() {
		return fmt.Errorf("%w: session has no token", shared.ErrInvalidInput)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = m.now().UTC()
	}
	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	m.logger.Debug("session stored", "admin_id", s.AdminID)
	return nil
}

// Clear signs the admin out.
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// TokenExpiry reads the exp claim of a JWT without verifying its signature.
//
// Opaque (non-JWT) tokens and JWTs without exp report false.
func TokenExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// MemoryStore is a [Store] kept in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	session *models.Session
}

// NewMemoryStore returns a store optionally seeded with s.
func NewMemoryStore(s *models.Session) *MemoryStore {
	store := &MemoryStore{}
	if s != nil {
		cp := *s
		store.session = &cp
	}
	return store
}

func (m *MemoryStore) Load(ctx context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	cp := *m.session
	return &cp, nil
}

func (m *MemoryStore) Save(ctx context.Context, s models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = &s
	return nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}
