package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/validator"
)

type OrganizationService interface {
	Create(ctx context.Context, req *CreateOrganizationRequest) (*models.Organization, error)
	GetByID(ctx context.Context, id uint) (*models.Organization, error)
	List(ctx context.Context, limit, offset int) ([]*models.Organization, int64, error)

	CreateTag(ctx context.Context, req *CreateTagRequest) (*models.Tag, error)
	ListTags(ctx context.Context, organizationID uint) ([]*models.Tag, error)
}

type CreateOrganizationRequest struct {
	Name        string  `json:"name" validate:"required,max=200"`
	Description *string `json:"description"`
}

type CreateTagRequest struct {
	Name           string  `json:"name" validate:"required,max=100"`
	Description    *string `json:"description"`
	OrganizationID uint    `json:"organization_id" validate:"required"`
}

type organizationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewOrganizationService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) OrganizationService {
	return &organizationService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *organizationService) Create(ctx context.Context, req *CreateOrganizationRequest) (*models.Organization, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	org := &models.Organization{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := s.repo.Organization().Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	s.logger.Info("Organization created", "organization_id", org.ID, "name", org.Name)
	return org, nil
}

func (s *organizationService) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	org, err := s.repo.Organization().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if !org.Effective() {
		return nil, ErrOrganizationNotFound
	}

	return org, nil
}

func (s *organizationService) List(ctx context.Context, limit, offset int) ([]*models.Organization, int64, error) {
	return s.repo.Organization().List(ctx, limit, offset)
}

func (s *organizationService) CreateTag(ctx context.Context, req *CreateTagRequest) (*models.Tag, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.GetByID(ctx, req.OrganizationID); err != nil {
		return nil, err
	}

	tag := &models.Tag{
		Name:           req.Name,
		Description:    req.Description,
		OrganizationID: req.OrganizationID,
		IsActive:       true,
	}
	if err := s.repo.Tag().Create(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	return tag, nil
}

func (s *organizationService) ListTags(ctx context.Context, organizationID uint) ([]*models.Tag, error) {
	if _, err := s.GetByID(ctx, organizationID); err != nil {
		return nil, err
	}

	return s.repo.Tag().ListByOrganization(ctx, organizationID)
}
