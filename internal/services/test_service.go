package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/openassess/testing-service/internal/cache"
	"github.com/openassess/testing-service/internal/events"
	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/validator"
)

// TestService manages test definitions: CRUD, question associations and
// public-link resolution. Link lookups are cached; every write path that can
// change what a link resolves to invalidates the cache entry.
type TestService interface {
	Create(ctx context.Context, req *CreateTestRequest, createdBy string) (*models.Test, error)
	CreateFromTemplate(ctx context.Context, templateID uint, req *CreateTestRequest, createdBy string) (*models.Test, error)
	GetByID(ctx context.Context, id uint) (*models.Test, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error)
	GetByLink(ctx context.Context, link string) (*models.Test, error)
	Update(ctx context.Context, id uint, req *UpdateTestRequest) (*models.Test, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.TestFilters) ([]*models.Test, int64, error)

	AddQuestions(ctx context.Context, testID uint, revisionIDs []uint) error
	RemoveQuestion(ctx context.Context, testID, revisionID uint) error
	ListSessions(ctx context.Context, testID uint, filters repositories.SessionFilters) ([]*models.CandidateTest, int64, error)
}

// ===== REQUEST TYPES =====

type CreateTestRequest struct {
	Name                string                              `json:"name" validate:"required,max=255"`
	Description         *string                             `json:"description"`
	StartTime           *time.Time                          `json:"start_time"`
	EndTime             *time.Time                          `json:"end_time"`
	TimeLimit           *int                                `json:"time_limit" validate:"omitempty,min=1"`
	MarksLevel          *models.MarksLevel                  `json:"marks_level" validate:"omitempty,marks_level"`
	Marks               *int                                `json:"marks"`
	CompletionMessage   *string                             `json:"completion_message"`
	StartInstructions   *string                             `json:"start_instructions"`
	NoOfAttempts        int                                 `json:"no_of_attempts" validate:"omitempty,min=1"`
	Shuffle             bool                                `json:"shuffle"`
	RandomQuestions     bool                                `json:"random_questions"`
	NoOfRandomQuestions *int                                `json:"no_of_random_questions"`
	QuestionPagination  int                                 `json:"question_pagination" validate:"min=0"`
	IsTemplate          bool                                `json:"is_template"`
	ShowResult          *bool                               `json:"show_result"`
	MarkingScheme       *models.MarkingScheme               `json:"marking_scheme"`
	RandomTagCount      []models.TagRandomCount             `json:"random_tag_count"`
	QuestionRevisionIDs []uint                              `json:"question_revision_ids"`
}

type UpdateTestRequest struct {
	Name                *string                 `json:"name" validate:"omitempty,max=255"`
	Description         *string                 `json:"description"`
	StartTime           *time.Time              `json:"start_time"`
	EndTime             *time.Time              `json:"end_time"`
	TimeLimit           *int                    `json:"time_limit" validate:"omitempty,min=1"`
	CompletionMessage   *string                 `json:"completion_message"`
	StartInstructions   *string                 `json:"start_instructions"`
	Shuffle             *bool                   `json:"shuffle"`
	RandomQuestions     *bool                   `json:"random_questions"`
	NoOfRandomQuestions *int                    `json:"no_of_random_questions"`
	ShowResult          *bool                   `json:"show_result"`
	IsActive            *bool                   `json:"is_active"`
	RandomTagCount      []models.TagRandomCount `json:"random_tag_count"`
}

// ===== IMPLEMENTATION =====

const testLinkCacheTTL = 10 * time.Minute

type testService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	cache     cache.CacheService
	publisher events.EventPublisher
}

func NewTestService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, cacheService cache.CacheService, publisher events.EventPublisher) TestService {
	return &testService{
		repo:      repo,
		logger:    logger,
		validator: v,
		cache:     cacheService,
		publisher: publisher,
	}
}

func (s *testService) Create(ctx context.Context, req *CreateTestRequest, createdBy string) (*models.Test, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test := s.buildTest(req, createdBy)

	if err := s.validator.Test().ValidateDefinition(test, len(req.QuestionRevisionIDs)); err != nil {
		return nil, err
	}

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Test().Create(ctx, test); err != nil {
			return fmt.Errorf("failed to create test: %w", err)
		}
		if err := tx.Test().AddQuestions(ctx, test.ID, req.QuestionRevisionIDs); err != nil {
			return fmt.Errorf("failed to associate questions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewSessionEvent(events.EventTestCreated, events.TestCreatedEvent{
		TestID:    test.ID,
		TestName:  test.Name,
		CreatedBy: createdBy,
		Link:      test.Link,
	}))

	s.logger.Info("Test created", "test_id", test.ID, "name", test.Name)
	return test, nil
}

// CreateFromTemplate copies a template's definition, letting the request
// override the fields it sets. The new test gets its own link token.
func (s *testService) CreateFromTemplate(ctx context.Context, templateID uint, req *CreateTestRequest, createdBy string) (*models.Test, error) {
	template, err := s.repo.Test().GetByIDWithQuestions(ctx, templateID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	if !template.IsTemplate || !template.Effective() {
		return nil, ErrTemplateNotFound
	}

	merged := *req
	if merged.Name == "" {
		merged.Name = template.Name
	}
	if merged.TimeLimit == nil {
		merged.TimeLimit = template.TimeLimit
	}
	if merged.StartInstructions == nil {
		merged.StartInstructions = template.StartInstructions
	}
	if merged.CompletionMessage == nil {
		merged.CompletionMessage = template.CompletionMessage
	}
	if !merged.Shuffle {
		merged.Shuffle = template.Shuffle
	}
	if len(merged.QuestionRevisionIDs) == 0 {
		for _, assoc := range template.Questions {
			merged.QuestionRevisionIDs = append(merged.QuestionRevisionIDs, assoc.QuestionRevisionID)
		}
	}
	merged.IsTemplate = false

	test, err := s.Create(ctx, &merged, createdBy)
	if err != nil {
		return nil, err
	}

	test.TemplateID = &template.ID
	if err := s.repo.Test().Update(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to link template: %w", err)
	}

	return test, nil
}

func (s *testService) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	test, err := s.repo.Test().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test.IsDeleted {
		return nil, ErrTestNotFound
	}

	return test, nil
}

func (s *testService) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	test, err := s.repo.Test().GetByIDWithQuestions(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if test.IsDeleted {
		return nil, ErrTestNotFound
	}

	return test, nil
}

// GetByLink resolves the public QR-code token, via cache when possible.
func (s *testService) GetByLink(ctx context.Context, link string) (*models.Test, error) {
	cacheKey := testLinkCacheKey(link)

	var cached models.Test
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Test link cache read failed", "link", link, "error", err)
	}

	test, err := s.repo.Test().GetByLink(ctx, link)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestLinkNotFound
		}
		return nil, fmt.Errorf("failed to get test by link: %w", err)
	}
	if !test.Effective() {
		return nil, ErrTestLinkNotFound
	}

	if err := s.cache.Set(ctx, cacheKey, test, testLinkCacheTTL); err != nil {
		s.logger.Warn("Test link cache write failed", "link", link, "error", err)
	}

	return test, nil
}

func (s *testService) Update(ctx context.Context, id uint, req *UpdateTestRequest) (*models.Test, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.applyUpdate(test, req)

	questionCount, err := s.repo.Test().CountQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	if err := s.validator.Test().ValidateDefinition(test, questionCount); err != nil {
		return nil, err
	}

	if err := s.repo.Test().Update(ctx, test); err != nil {
		return nil, fmt.Errorf("failed to update test: %w", err)
	}

	s.invalidateLink(ctx, test.Link)

	if req.IsActive != nil && !*req.IsActive {
		s.publishEvent(ctx, events.NewSessionEvent(events.EventTestDeactivated, events.TestDeactivatedEvent{
			TestID:   test.ID,
			TestName: test.Name,
		}))
	}

	return test, nil
}

func (s *testService) Delete(ctx context.Context, id uint) error {
	test, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Test().SoftDelete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}

	s.invalidateLink(ctx, test.Link)
	s.logger.Info("Test deleted", "test_id", id)
	return nil
}

func (s *testService) List(ctx context.Context, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	return s.repo.Test().List(ctx, filters)
}

func (s *testService) AddQuestions(ctx context.Context, testID uint, revisionIDs []uint) error {
	test, err := s.GetByID(ctx, testID)
	if err != nil {
		return err
	}

	revisions, err := s.repo.QuestionRevision().GetByIDs(ctx, revisionIDs)
	if err != nil {
		return fmt.Errorf("failed to get revisions: %w", err)
	}
	if len(revisions) != len(revisionIDs) {
		return ErrRevisionNotFound
	}

	if err := s.repo.Test().AddQuestions(ctx, testID, revisionIDs); err != nil {
		return fmt.Errorf("failed to associate questions: %w", err)
	}

	s.invalidateLink(ctx, test.Link)
	return nil
}

func (s *testService) RemoveQuestion(ctx context.Context, testID, revisionID uint) error {
	test, err := s.GetByID(ctx, testID)
	if err != nil {
		return err
	}

	if err := s.repo.Test().RemoveQuestion(ctx, testID, revisionID); err != nil {
		return fmt.Errorf("failed to remove question: %w", err)
	}

	s.invalidateLink(ctx, test.Link)
	return nil
}

func (s *testService) ListSessions(ctx context.Context, testID uint, filters repositories.SessionFilters) ([]*models.CandidateTest, int64, error) {
	if _, err := s.GetByID(ctx, testID); err != nil {
		return nil, 0, err
	}

	return s.repo.CandidateTest().ListByTest(ctx, testID, filters)
}

// ===== INTERNAL HELPERS =====

func (s *testService) buildTest(req *CreateTestRequest, createdBy string) *models.Test {
	test := &models.Test{
		Name:                req.Name,
		Description:         req.Description,
		StartTime:           req.StartTime,
		EndTime:             req.EndTime,
		TimeLimit:           req.TimeLimit,
		MarksLevel:          req.MarksLevel,
		Marks:               req.Marks,
		CompletionMessage:   req.CompletionMessage,
		StartInstructions:   req.StartInstructions,
		NoOfAttempts:        req.NoOfAttempts,
		Shuffle:             req.Shuffle,
		RandomQuestions:     req.RandomQuestions,
		NoOfRandomQuestions: req.NoOfRandomQuestions,
		QuestionPagination:  req.QuestionPagination,
		IsTemplate:          req.IsTemplate,
		ShowResult:          true,
		RandomTagCount:      datatypes.NewJSONSlice(req.RandomTagCount),
		CreatedByID:         createdBy,
		IsActive:            true,
	}

	if req.NoOfAttempts == 0 {
		test.NoOfAttempts = 1
	}
	if req.ShowResult != nil {
		test.ShowResult = *req.ShowResult
	}
	if req.MarkingScheme != nil {
		scheme := datatypes.NewJSONType(*req.MarkingScheme)
		test.MarkingScheme = &scheme
	}
	if !req.IsTemplate {
		test.Link = uuid.NewString()
	}

	return test
}

func (s *testService) applyUpdate(test *models.Test, req *UpdateTestRequest) {
	if req.Name != nil {
		test.Name = *req.Name
	}
	if req.Description != nil {
		test.Description = req.Description
	}
	if req.StartTime != nil {
		test.StartTime = req.StartTime
	}
	if req.EndTime != nil {
		test.EndTime = req.EndTime
	}
	if req.TimeLimit != nil {
		test.TimeLimit = req.TimeLimit
	}
	if req.CompletionMessage != nil {
		test.CompletionMessage = req.CompletionMessage
	}
	if req.StartInstructions != nil {
		test.StartInstructions = req.StartInstructions
	}
	if req.Shuffle != nil {
		test.Shuffle = *req.Shuffle
	}
	if req.RandomQuestions != nil {
		test.RandomQuestions = *req.RandomQuestions
	}
	if req.NoOfRandomQuestions != nil {
		test.NoOfRandomQuestions = req.NoOfRandomQuestions
	}
	if req.ShowResult != nil {
		test.ShowResult = *req.ShowResult
	}
	if req.IsActive != nil {
		test.IsActive = *req.IsActive
	}
	if req.RandomTagCount != nil {
		test.RandomTagCount = datatypes.NewJSONSlice(req.RandomTagCount)
	}
}

func (s *testService) invalidateLink(ctx context.Context, link string) {
	if link == "" {
		return
	}
	if err := s.cache.Delete(ctx, testLinkCacheKey(link)); err != nil {
		s.logger.Warn("Test link cache invalidation failed", "link", link, "error", err)
	}
}

func (s *testService) publishEvent(ctx context.Context, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish test event",
			"event_type", event.Type,
			"error", err)
	}
}

func testLinkCacheKey(link string) string {
	return "test:link:" + link
}
