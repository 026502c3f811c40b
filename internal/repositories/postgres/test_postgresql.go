package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
)

type TestPostgreSQL struct {
	db *gorm.DB
}

func NewTestPostgreSQL(db *gorm.DB) repositories.TestRepository {
	return &TestPostgreSQL{db: db}
}

func (t TestPostgreSQL) Create(ctx context.Context, test *models.Test) error {
	return t.db.WithContext(ctx).Create(test).Error
}

func (t TestPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	if err := t.db.WithContext(ctx).First(&test, id).Error; err != nil {
		return nil, err
	}

	return &test, nil
}

func (t TestPostgreSQL) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	var test models.Test
	if err := t.db.WithContext(ctx).
		Preload("Tags").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("test_questions.id ASC")
		}).
		Preload("Questions.QuestionRevision").
		Preload("Questions.QuestionRevision.Question.Tags").
		First(&test, id).Error; err != nil {
		return nil, err
	}

	return &test, nil
}

func (t TestPostgreSQL) GetByLink(ctx context.Context, link string) (*models.Test, error) {
	var test models.Test
	if err := t.db.WithContext(ctx).Where("link = ?", link).First(&test).Error; err != nil {
		return nil, err
	}

	return &test, nil
}

func (t TestPostgreSQL) Update(ctx context.Context, test *models.Test) error {
	return t.db.WithContext(ctx).Save(test).Error
}

func (t TestPostgreSQL) SoftDelete(ctx context.Context, id uint) error {
	return t.db.WithContext(ctx).
		Model(&models.Test{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

func (t TestPostgreSQL) List(ctx context.Context, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	var tests []*models.Test
	var total int64

	query := t.db.WithContext(ctx).Model(&models.Test{}).Where("is_deleted = ?", false)
	query = t.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = t.applyPaginationAndSort(query, filters)

	if err := query.Preload("Tags").Find(&tests).Error; err != nil {
		return nil, 0, err
	}

	return tests, total, nil
}

func (t TestPostgreSQL) AddQuestions(ctx context.Context, testID uint, revisionIDs []uint) error {
	if len(revisionIDs) == 0 {
		return nil
	}

	associations := make([]models.TestQuestion, 0, len(revisionIDs))
	for _, revisionID := range revisionIDs {
		associations = append(associations, models.TestQuestion{
			TestID:             testID,
			QuestionRevisionID: revisionID,
		})
	}

	return t.db.WithContext(ctx).Create(&associations).Error
}

func (t TestPostgreSQL) RemoveQuestion(ctx context.Context, testID, revisionID uint) error {
	return t.db.WithContext(ctx).
		Where("test_id = ? AND question_revision_id = ?", testID, revisionID).
		Delete(&models.TestQuestion{}).Error
}

func (t TestPostgreSQL) CountQuestions(ctx context.Context, testID uint) (int, error) {
	var count int64
	if err := t.db.WithContext(ctx).
		Model(&models.TestQuestion{}).
		Where("test_id = ?", testID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return int(count), nil
}

func (t TestPostgreSQL) GetQuestionRevisions(ctx context.Context, testID uint) ([]*models.TestQuestion, error) {
	var associations []*models.TestQuestion
	if err := t.db.WithContext(ctx).
		Where("test_id = ?", testID).
		Order("id ASC").
		Preload("QuestionRevision").
		Preload("QuestionRevision.Question.Tags").
		Find(&associations).Error; err != nil {
		return nil, err
	}

	return associations, nil
}

func (t TestPostgreSQL) applyFilters(query *gorm.DB, filters repositories.TestFilters) *gorm.DB {
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.IsTemplate != nil {
		query = query.Where("is_template = ?", *filters.IsTemplate)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by_id = ?", *filters.CreatedBy)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (t TestPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.TestFilters) *gorm.DB {
	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order(sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
