package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
)

type CandidatePostgreSQL struct {
	db *gorm.DB
}

func NewCandidatePostgreSQL(db *gorm.DB) repositories.CandidateRepository {
	return &CandidatePostgreSQL{db: db}
}

func (c CandidatePostgreSQL) Create(ctx context.Context, candidate *models.Candidate) error {
	return c.db.WithContext(ctx).Create(candidate).Error
}

func (c CandidatePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := c.db.WithContext(ctx).First(&candidate, id).Error; err != nil {
		return nil, err
	}

	return &candidate, nil
}

func (c CandidatePostgreSQL) GetByIdentity(ctx context.Context, identity string) (*models.Candidate, error) {
	var candidate models.Candidate
	if err := c.db.WithContext(ctx).Where("identity = ?", identity).First(&candidate).Error; err != nil {
		return nil, err
	}

	return &candidate, nil
}

func (c CandidatePostgreSQL) Update(ctx context.Context, candidate *models.Candidate) error {
	return c.db.WithContext(ctx).Save(candidate).Error
}

type CandidateTestPostgreSQL struct {
	db *gorm.DB
}

func NewCandidateTestPostgreSQL(db *gorm.DB) repositories.CandidateTestRepository {
	return &CandidateTestPostgreSQL{db: db}
}

func (c CandidateTestPostgreSQL) Create(ctx context.Context, session *models.CandidateTest) error {
	return c.db.WithContext(ctx).Create(session).Error
}

func (c CandidateTestPostgreSQL) GetByID(ctx context.Context, id uint) (*models.CandidateTest, error) {
	var session models.CandidateTest
	if err := c.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, err
	}

	return &session, nil
}

func (c CandidateTestPostgreSQL) GetByIDWithCandidate(ctx context.Context, id uint) (*models.CandidateTest, error) {
	var session models.CandidateTest
	if err := c.db.WithContext(ctx).
		Preload("Candidate").
		First(&session, id).Error; err != nil {
		return nil, err
	}

	return &session, nil
}

func (c CandidateTestPostgreSQL) GetByCandidateAndTest(ctx context.Context, candidateID, testID uint) (*models.CandidateTest, error) {
	var session models.CandidateTest
	if err := c.db.WithContext(ctx).
		Where("candidate_id = ? AND test_id = ?", candidateID, testID).
		First(&session).Error; err != nil {
		return nil, err
	}

	return &session, nil
}

func (c CandidateTestPostgreSQL) Update(ctx context.Context, session *models.CandidateTest) error {
	return c.db.WithContext(ctx).Save(session).Error
}

// MarkSubmitted uses a guarded UPDATE rather than read-modify-write so two
// concurrent submits cannot both succeed.
func (c CandidateTestPostgreSQL) MarkSubmitted(ctx context.Context, id uint, endTime time.Time) (bool, error) {
	result := c.db.WithContext(ctx).
		Model(&models.CandidateTest{}).
		Where("id = ? AND is_submitted = ?", id, false).
		Updates(map[string]interface{}{
			"is_submitted": true,
			"end_time":     endTime,
		})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// CountByUserAndTest counts every session a registered user has opened for a
// test, across all of their candidate rows. Anonymous sessions carry no user
// and never contribute.
func (c CandidateTestPostgreSQL) CountByUserAndTest(ctx context.Context, userID string, testID uint) (int, error) {
	var count int64
	if err := c.db.WithContext(ctx).
		Model(&models.CandidateTest{}).
		Joins("JOIN candidates ON candidates.id = candidate_tests.candidate_id").
		Where("candidates.user_id = ? AND candidate_tests.test_id = ?", userID, testID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return int(count), nil
}

func (c CandidateTestPostgreSQL) ListByTest(ctx context.Context, testID uint, filters repositories.SessionFilters) ([]*models.CandidateTest, int64, error) {
	var sessions []*models.CandidateTest
	var total int64

	query := c.db.WithContext(ctx).Model(&models.CandidateTest{}).Where("test_id = ?", testID)
	if filters.SubmittedOnly {
		query = query.Where("is_submitted = ?", true)
	}
	if filters.CandidateID != nil {
		query = query.Where("candidate_id = ?", *filters.CandidateID)
	}
	if filters.DateFrom != nil {
		query = query.Where("start_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("start_time <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("id ASC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Preload("Candidate").Find(&sessions).Error; err != nil {
		return nil, 0, err
	}

	return sessions, total, nil
}

type CandidateTestAnswerPostgreSQL struct {
	db *gorm.DB
}

func NewCandidateTestAnswerPostgreSQL(db *gorm.DB) repositories.CandidateTestAnswerRepository {
	return &CandidateTestAnswerPostgreSQL{db: db}
}

func (c CandidateTestAnswerPostgreSQL) Create(ctx context.Context, answer *models.CandidateTestAnswer) error {
	return c.db.WithContext(ctx).Create(answer).Error
}

func (c CandidateTestAnswerPostgreSQL) Update(ctx context.Context, answer *models.CandidateTestAnswer) error {
	return c.db.WithContext(ctx).Save(answer).Error
}

func (c CandidateTestAnswerPostgreSQL) GetBySession(ctx context.Context, candidateTestID uint) ([]*models.CandidateTestAnswer, error) {
	var answers []*models.CandidateTestAnswer
	if err := c.db.WithContext(ctx).
		Where("candidate_test_id = ?", candidateTestID).
		Order("id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}

	return answers, nil
}

// GetBySessionAndRevision returns (nil, nil) when no row exists so callers
// can branch between insert and update without error juggling.
func (c CandidateTestAnswerPostgreSQL) GetBySessionAndRevision(ctx context.Context, candidateTestID, revisionID uint) (*models.CandidateTestAnswer, error) {
	var answer models.CandidateTestAnswer
	if err := c.db.WithContext(ctx).
		Where("candidate_test_id = ? AND question_revision_id = ?", candidateTestID, revisionID).
		First(&answer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &answer, nil
}
