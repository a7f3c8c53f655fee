package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dhunjam/internal/models"
)

// SessionRepository persists the signed-in admin in the single-row sessions table.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Load returns the stored session, or nil when nobody is signed in.
func (r *SessionRepository) Load(ctx context.Context) (*models.Session, error) {
	query := `SELECT admin_id, token, username, created_at FROM sessions WHERE slot = 1`

	var (
		s         models.Session
		createdAt time.Time
	)
	err := r.db.QueryRowContext(ctx, query).Scan(&s.AdminID, &s.Token, &s.Username, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	s.CreatedAt = createdAt
	return &s, nil
}

// Save replaces the stored session.
func (r *SessionRepository) Save(ctx context.Context, s models.Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sessions (slot, admin_id, token, username, created_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			admin_id = excluded.admin_id,
			token = excluded.token,
			username = excluded.username,
			created_at = excluded.created_at
	`

	if _, err := r.db.ExecContext(ctx, query, s.AdminID, s.Token, s.Username, s.CreatedAt); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an empty table is not an error.
func (r *SessionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE slot = 1`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
