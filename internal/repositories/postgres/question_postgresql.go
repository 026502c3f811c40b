package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).Preload("Tags").First(&question, id).Error; err != nil {
		return nil, err
	}

	return &question, nil
}

func (q QuestionPostgreSQL) GetByIDWithRevisions(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).
		Preload("Tags").
		Preload("Revisions", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_revisions.id ASC")
		}).
		First(&question, id).Error; err != nil {
		return nil, err
	}

	return &question, nil
}

func (q QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Save(question).Error
}

func (q QuestionPostgreSQL) SoftDelete(ctx context.Context, id uint) error {
	return q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", id).
		Update("is_deleted", true).Error
}

func (q QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	query := q.db.WithContext(ctx).Model(&models.Question{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = q.applyPaginationAndSort(query, filters)

	if err := query.Preload("Tags").Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q QuestionPostgreSQL) SetLastRevision(ctx context.Context, questionID, revisionID uint) error {
	return q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("id = ?", questionID).
		Update("last_revision_id", revisionID).Error
}

func (q QuestionPostgreSQL) ReplaceTags(ctx context.Context, questionID uint, tags []models.Tag) error {
	question := models.Question{ID: questionID}
	return q.db.WithContext(ctx).Model(&question).Association("Tags").Replace(tags)
}

func (q QuestionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if !filters.IncludeInactive {
		query = query.Where("questions.is_active = ? AND questions.is_deleted = ?", true, false)
	}
	if filters.OrganizationID != nil {
		query = query.Where("questions.organization_id = ?", *filters.OrganizationID)
	}
	if filters.CreatedBy != nil {
		query = query.
			Joins("JOIN question_revisions ON question_revisions.id = questions.last_revision_id").
			Where("question_revisions.created_by_id = ?", *filters.CreatedBy)
	}
	if filters.Type != nil {
		query = query.
			Joins("JOIN question_revisions lr ON lr.id = questions.last_revision_id").
			Where("lr.question_type = ?", *filters.Type)
	}
	if len(filters.TagIDs) > 0 {
		query = query.
			Joins("JOIN question_tag ON question_tag.question_id = questions.id").
			Where("question_tag.tag_id IN ?", filters.TagIDs).
			Distinct("questions.*")
	}
	return query
}

func (q QuestionPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	sortBy := filters.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	sortOrder := filters.SortOrder
	if sortOrder != "asc" {
		sortOrder = "desc"
	}
	query = query.Order("questions." + sortBy + " " + sortOrder)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}

type QuestionRevisionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionRevisionPostgreSQL(db *gorm.DB) repositories.QuestionRevisionRepository {
	return &QuestionRevisionPostgreSQL{db: db}
}

func (r QuestionRevisionPostgreSQL) Create(ctx context.Context, revision *models.QuestionRevision) error {
	return r.db.WithContext(ctx).Create(revision).Error
}

func (r QuestionRevisionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.QuestionRevision, error) {
	var revision models.QuestionRevision
	if err := r.db.WithContext(ctx).First(&revision, id).Error; err != nil {
		return nil, err
	}

	return &revision, nil
}

func (r QuestionRevisionPostgreSQL) GetByIDs(ctx context.Context, ids []uint) ([]*models.QuestionRevision, error) {
	var revisions []*models.QuestionRevision
	if len(ids) == 0 {
		return revisions, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&revisions).Error; err != nil {
		return nil, err
	}

	return revisions, nil
}

func (r QuestionRevisionPostgreSQL) GetLatestByQuestion(ctx context.Context, questionID uint) (*models.QuestionRevision, error) {
	var revision models.QuestionRevision
	if err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id DESC").
		First(&revision).Error; err != nil {
		return nil, err
	}

	return &revision, nil
}

func (r QuestionRevisionPostgreSQL) ListByQuestion(ctx context.Context, questionID uint) ([]*models.QuestionRevision, error) {
	var revisions []*models.QuestionRevision
	if err := r.db.WithContext(ctx).
		Where("question_id = ?", questionID).
		Order("id ASC").
		Find(&revisions).Error; err != nil {
		return nil, err
	}

	return revisions, nil
}
