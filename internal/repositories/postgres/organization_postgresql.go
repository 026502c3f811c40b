package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
)

type OrganizationPostgreSQL struct {
	db *gorm.DB
}

func NewOrganizationPostgreSQL(db *gorm.DB) repositories.OrganizationRepository {
	return &OrganizationPostgreSQL{db: db}
}

func (o OrganizationPostgreSQL) Create(ctx context.Context, org *models.Organization) error {
	return o.db.WithContext(ctx).Create(org).Error
}

func (o OrganizationPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	var org models.Organization
	if err := o.db.WithContext(ctx).First(&org, id).Error; err != nil {
		return nil, err
	}

	return &org, nil
}

func (o OrganizationPostgreSQL) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	var org models.Organization
	if err := o.db.WithContext(ctx).Where("name = ?", name).First(&org).Error; err != nil {
		return nil, err
	}

	return &org, nil
}

func (o OrganizationPostgreSQL) Update(ctx context.Context, org *models.Organization) error {
	return o.db.WithContext(ctx).Save(org).Error
}

func (o OrganizationPostgreSQL) List(ctx context.Context, limit, offset int) ([]*models.Organization, int64, error) {
	var orgs []*models.Organization
	var total int64

	query := o.db.WithContext(ctx).Model(&models.Organization{}).Where("is_deleted = ?", false)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&orgs).Error; err != nil {
		return nil, 0, err
	}

	return orgs, total, nil
}

type TagPostgreSQL struct {
	db *gorm.DB
}

func NewTagPostgreSQL(db *gorm.DB) repositories.TagRepository {
	return &TagPostgreSQL{db: db}
}

func (t TagPostgreSQL) Create(ctx context.Context, tag *models.Tag) error {
	return t.db.WithContext(ctx).Create(tag).Error
}

func (t TagPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := t.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return nil, err
	}

	return &tag, nil
}

func (t TagPostgreSQL) GetByName(ctx context.Context, organizationID uint, name string) (*models.Tag, error) {
	var tag models.Tag
	if err := t.db.WithContext(ctx).
		Where("organization_id = ? AND name = ?", organizationID, name).
		First(&tag).Error; err != nil {
		return nil, err
	}

	return &tag, nil
}

func (t TagPostgreSQL) ListByOrganization(ctx context.Context, organizationID uint) ([]*models.Tag, error) {
	var tags []*models.Tag
	if err := t.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("name ASC").
		Find(&tags).Error; err != nil {
		return nil, err
	}

	return tags, nil
}
