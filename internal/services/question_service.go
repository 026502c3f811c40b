package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/validator"
)

// QuestionService manages questions and their immutable revisions. Editing
// content never mutates a revision: it inserts a new one and repoints the
// question's last_revision_id, so sessions holding older revision ids keep
// seeing exactly what the candidate was shown.
type QuestionService interface {
	Create(ctx context.Context, req *CreateQuestionRequest, createdBy string) (*models.Question, error)
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDWithRevisions(ctx context.Context, id uint) (*models.Question, error)
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
	Delete(ctx context.Context, id uint) error

	CreateRevision(ctx context.Context, questionID uint, req *RevisionRequest, createdBy string) (*models.QuestionRevision, error)
	GetRevision(ctx context.Context, revisionID uint) (*models.QuestionRevision, error)
	ListRevisions(ctx context.Context, questionID uint) ([]*models.QuestionRevision, error)

	SetTags(ctx context.Context, questionID uint, tagIDs []uint) error
}

// ===== REQUEST TYPES =====

type RevisionRequest struct {
	QuestionText          string                `json:"question_text" validate:"required"`
	Instructions          *string               `json:"instructions"`
	QuestionType          models.QuestionType   `json:"question_type" validate:"required,question_type"`
	Options               []models.Option       `json:"options"`
	CorrectAnswer         datatypes.JSON        `json:"correct_answer"`
	SubjectiveAnswerLimit *int                  `json:"subjective_answer_limit"`
	IsMandatory           *bool                 `json:"is_mandatory"`
	MarkingScheme         *models.MarkingScheme `json:"marking_scheme"`
	Solution              *string               `json:"solution"`
	Media                 *models.Image         `json:"media"`
}

type CreateQuestionRequest struct {
	OrganizationID uint            `json:"organization_id" validate:"required"`
	TagIDs         []uint          `json:"tag_ids"`
	Revision       RevisionRequest `json:"revision" validate:"required"`
}

// ===== IMPLEMENTATION =====

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, createdBy string) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.repo.Organization().GetByID(ctx, req.OrganizationID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	tags, err := s.resolveTags(ctx, req.TagIDs)
	if err != nil {
		return nil, err
	}

	revision := buildRevision(&req.Revision, createdBy)
	if err := s.validator.Question().ValidateRevision(revision); err != nil {
		return nil, err
	}

	question := &models.Question{
		OrganizationID: req.OrganizationID,
		IsActive:       true,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Question().Create(ctx, question); err != nil {
			return fmt.Errorf("failed to create question: %w", err)
		}

		revision.QuestionID = question.ID
		if err := tx.QuestionRevision().Create(ctx, revision); err != nil {
			return fmt.Errorf("failed to create revision: %w", err)
		}

		if err := tx.Question().SetLastRevision(ctx, question.ID, revision.ID); err != nil {
			return fmt.Errorf("failed to set last revision: %w", err)
		}

		if len(tags) > 0 {
			if err := tx.Question().ReplaceTags(ctx, question.ID, tags); err != nil {
				return fmt.Errorf("failed to set tags: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	question.LastRevisionID = &revision.ID
	question.Revisions = []models.QuestionRevision{*revision}
	question.Tags = tags

	s.logger.Info("Question created",
		"question_id", question.ID,
		"revision_id", revision.ID,
		"type", revision.QuestionType)

	return question, nil
}

func (s *questionService) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if !question.Effective() {
		return nil, ErrQuestionNotFound
	}

	return question, nil
}

func (s *questionService) GetByIDWithRevisions(ctx context.Context, id uint) (*models.Question, error) {
	question, err := s.repo.Question().GetByIDWithRevisions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	if !question.Effective() {
		return nil, ErrQuestionNotFound
	}

	return question, nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return s.repo.Question().List(ctx, filters)
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Question().SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	s.logger.Info("Question deleted", "question_id", id)
	return nil
}

// CreateRevision supersedes the question's content. The previous revision
// stays untouched for sessions that snapshotted it.
func (s *questionService) CreateRevision(ctx context.Context, questionID uint, req *RevisionRequest, createdBy string) (*models.QuestionRevision, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.GetByID(ctx, questionID); err != nil {
		return nil, err
	}

	revision := buildRevision(req, createdBy)
	revision.QuestionID = questionID

	if err := s.validator.Question().ValidateRevision(revision); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.QuestionRevision().Create(ctx, revision); err != nil {
			return fmt.Errorf("failed to create revision: %w", err)
		}
		if err := tx.Question().SetLastRevision(ctx, questionID, revision.ID); err != nil {
			return fmt.Errorf("failed to set last revision: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Question revision created",
		"question_id", questionID,
		"revision_id", revision.ID)

	return revision, nil
}

func (s *questionService) GetRevision(ctx context.Context, revisionID uint) (*models.QuestionRevision, error) {
	revision, err := s.repo.QuestionRevision().GetByID(ctx, revisionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRevisionNotFound
		}
		return nil, fmt.Errorf("failed to get revision: %w", err)
	}

	return revision, nil
}

func (s *questionService) ListRevisions(ctx context.Context, questionID uint) ([]*models.QuestionRevision, error) {
	if _, err := s.GetByID(ctx, questionID); err != nil {
		return nil, err
	}

	return s.repo.QuestionRevision().ListByQuestion(ctx, questionID)
}

func (s *questionService) SetTags(ctx context.Context, questionID uint, tagIDs []uint) error {
	if _, err := s.GetByID(ctx, questionID); err != nil {
		return err
	}

	tags, err := s.resolveTags(ctx, tagIDs)
	if err != nil {
		return err
	}

	return s.repo.Question().ReplaceTags(ctx, questionID, tags)
}

// ===== INTERNAL HELPERS =====

func (s *questionService) resolveTags(ctx context.Context, tagIDs []uint) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		tag, err := s.repo.Tag().GetByID(ctx, tagID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrTagNotFound
			}
			return nil, fmt.Errorf("failed to get tag: %w", err)
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func buildRevision(req *RevisionRequest, createdBy string) *models.QuestionRevision {
	revision := &models.QuestionRevision{
		QuestionText:          req.QuestionText,
		Instructions:          req.Instructions,
		QuestionType:          req.QuestionType,
		Options:               datatypes.NewJSONSlice(req.Options),
		CorrectAnswer:         req.CorrectAnswer,
		SubjectiveAnswerLimit: req.SubjectiveAnswerLimit,
		IsMandatory:           true,
		Solution:              req.Solution,
		CreatedByID:           createdBy,
		IsActive:              true,
	}

	if req.IsMandatory != nil {
		revision.IsMandatory = *req.IsMandatory
	}
	if req.MarkingScheme != nil {
		scheme := datatypes.NewJSONType(*req.MarkingScheme)
		revision.MarkingScheme = &scheme
	}
	if req.Media != nil {
		media := datatypes.NewJSONType(*req.Media)
		revision.Media = &media
	}

	return revision
}
