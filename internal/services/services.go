// package services defines interface AdminAPI for talking to the Dhun Jam admin endpoints
package services

import (
	"context"

	"github.com/desertthunder/dhunjam/internal/models"
)

// AdminAPI is the remote surface the console consumes.
type AdminAPI interface {
	// Login exchanges credentials for a session (POST /admin/login).
	Login(ctx context.Context, creds models.Credentials) (*models.Session, error)

	// GetAdmin reads the signed-in admin's settings (GET /admin/{id}).
	GetAdmin(ctx context.Context, session models.Session) (*models.AdminSettings, error)

	// UpdateAmounts replaces the five category amounts (PUT /admin/{id}).
	// Nothing other than amounts is ever sent.
	UpdateAmounts(ctx context.Context, session models.Session, amounts models.Amounts) error
}
