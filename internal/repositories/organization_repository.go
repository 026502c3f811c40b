package repositories

import (
	"context"

	"github.com/openassess/testing-service/internal/models"
)

type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id uint) (*models.Organization, error)
	GetByName(ctx context.Context, name string) (*models.Organization, error)
	Update(ctx context.Context, org *models.Organization) error
	List(ctx context.Context, limit, offset int) ([]*models.Organization, int64, error)
}

type TagRepository interface {
	Create(ctx context.Context, tag *models.Tag) error
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	GetByName(ctx context.Context, organizationID uint, name string) (*models.Tag, error)
	ListByOrganization(ctx context.Context, organizationID uint) ([]*models.Tag, error)
}
