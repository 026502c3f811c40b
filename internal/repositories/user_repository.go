package repositories

import (
	"context"

	"github.com/openassess/testing-service/internal/models"
)

// UserRepository manages admin users synced from the identity provider.
// The primary key is the IdP subject, so Upsert is the main write path.
type UserRepository interface {
	Upsert(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ListByOrganization(ctx context.Context, organizationID uint) ([]*models.User, error)
}
