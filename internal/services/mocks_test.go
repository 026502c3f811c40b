package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
)

// MockTestRepository is a mock implementation of TestRepository
type MockTestRepository struct {
	mock.Mock
}

func (m *MockTestRepository) Create(ctx context.Context, test *models.Test) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockTestRepository) GetByID(ctx context.Context, id uint) (*models.Test, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Test), args.Error(1)
}

func (m *MockTestRepository) GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Test), args.Error(1)
}

func (m *MockTestRepository) GetByLink(ctx context.Context, link string) (*models.Test, error) {
	args := m.Called(ctx, link)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Test), args.Error(1)
}

func (m *MockTestRepository) Update(ctx context.Context, test *models.Test) error {
	args := m.Called(ctx, test)
	return args.Error(0)
}

func (m *MockTestRepository) SoftDelete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTestRepository) List(ctx context.Context, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Test), args.Get(1).(int64), args.Error(2)
}

func (m *MockTestRepository) AddQuestions(ctx context.Context, testID uint, revisionIDs []uint) error {
	args := m.Called(ctx, testID, revisionIDs)
	return args.Error(0)
}

func (m *MockTestRepository) RemoveQuestion(ctx context.Context, testID, revisionID uint) error {
	args := m.Called(ctx, testID, revisionID)
	return args.Error(0)
}

func (m *MockTestRepository) CountQuestions(ctx context.Context, testID uint) (int, error) {
	args := m.Called(ctx, testID)
	return args.Int(0), args.Error(1)
}

func (m *MockTestRepository) GetQuestionRevisions(ctx context.Context, testID uint) ([]*models.TestQuestion, error) {
	args := m.Called(ctx, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TestQuestion), args.Error(1)
}

// MockCandidateRepository is a mock implementation of CandidateRepository
type MockCandidateRepository struct {
	mock.Mock
}

func (m *MockCandidateRepository) Create(ctx context.Context, candidate *models.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

func (m *MockCandidateRepository) GetByID(ctx context.Context, id uint) (*models.Candidate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) GetByIdentity(ctx context.Context, identity string) (*models.Candidate, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Candidate), args.Error(1)
}

func (m *MockCandidateRepository) Update(ctx context.Context, candidate *models.Candidate) error {
	args := m.Called(ctx, candidate)
	return args.Error(0)
}

// MockCandidateTestRepository is a mock implementation of CandidateTestRepository
type MockCandidateTestRepository struct {
	mock.Mock
}

func (m *MockCandidateTestRepository) Create(ctx context.Context, session *models.CandidateTest) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCandidateTestRepository) GetByID(ctx context.Context, id uint) (*models.CandidateTest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CandidateTest), args.Error(1)
}

func (m *MockCandidateTestRepository) GetByIDWithCandidate(ctx context.Context, id uint) (*models.CandidateTest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CandidateTest), args.Error(1)
}

func (m *MockCandidateTestRepository) GetByCandidateAndTest(ctx context.Context, candidateID, testID uint) (*models.CandidateTest, error) {
	args := m.Called(ctx, candidateID, testID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CandidateTest), args.Error(1)
}

func (m *MockCandidateTestRepository) Update(ctx context.Context, session *models.CandidateTest) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCandidateTestRepository) MarkSubmitted(ctx context.Context, id uint, endTime time.Time) (bool, error) {
	args := m.Called(ctx, id, endTime)
	return args.Bool(0), args.Error(1)
}

func (m *MockCandidateTestRepository) CountByUserAndTest(ctx context.Context, userID string, testID uint) (int, error) {
	args := m.Called(ctx, userID, testID)
	return args.Int(0), args.Error(1)
}

func (m *MockCandidateTestRepository) ListByTest(ctx context.Context, testID uint, filters repositories.SessionFilters) ([]*models.CandidateTest, int64, error) {
	args := m.Called(ctx, testID, filters)
	return args.Get(0).([]*models.CandidateTest), args.Get(1).(int64), args.Error(2)
}

// MockCandidateTestAnswerRepository is a mock implementation of CandidateTestAnswerRepository
type MockCandidateTestAnswerRepository struct {
	mock.Mock
}

func (m *MockCandidateTestAnswerRepository) Create(ctx context.Context, answer *models.CandidateTestAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockCandidateTestAnswerRepository) Update(ctx context.Context, answer *models.CandidateTestAnswer) error {
	args := m.Called(ctx, answer)
	return args.Error(0)
}

func (m *MockCandidateTestAnswerRepository) GetBySession(ctx context.Context, candidateTestID uint) ([]*models.CandidateTestAnswer, error) {
	args := m.Called(ctx, candidateTestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CandidateTestAnswer), args.Error(1)
}

func (m *MockCandidateTestAnswerRepository) GetBySessionAndRevision(ctx context.Context, candidateTestID, revisionID uint) (*models.CandidateTestAnswer, error) {
	args := m.Called(ctx, candidateTestID, revisionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CandidateTestAnswer), args.Error(1)
}

// MockQuestionRevisionRepository is a mock implementation of QuestionRevisionRepository
type MockQuestionRevisionRepository struct {
	mock.Mock
}

func (m *MockQuestionRevisionRepository) Create(ctx context.Context, revision *models.QuestionRevision) error {
	args := m.Called(ctx, revision)
	return args.Error(0)
}

func (m *MockQuestionRevisionRepository) GetByID(ctx context.Context, id uint) (*models.QuestionRevision, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionRevision), args.Error(1)
}

func (m *MockQuestionRevisionRepository) GetByIDs(ctx context.Context, ids []uint) ([]*models.QuestionRevision, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuestionRevision), args.Error(1)
}

func (m *MockQuestionRevisionRepository) GetLatestByQuestion(ctx context.Context, questionID uint) (*models.QuestionRevision, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionRevision), args.Error(1)
}

func (m *MockQuestionRevisionRepository) ListByQuestion(ctx context.Context, questionID uint) ([]*models.QuestionRevision, error) {
	args := m.Called(ctx, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuestionRevision), args.Error(1)
}

// MockOrganizationRepository is a mock implementation of OrganizationRepository
type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id uint) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Organization), args.Error(1)
}

func (m *MockOrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) List(ctx context.Context, limit, offset int) ([]*models.Organization, int64, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*models.Organization), args.Get(1).(int64), args.Error(2)
}

// MockTagRepository is a mock implementation of TagRepository
type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) Create(ctx context.Context, tag *models.Tag) error {
	args := m.Called(ctx, tag)
	return args.Error(0)
}

func (m *MockTagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagRepository) GetByName(ctx context.Context, organizationID uint, name string) (*models.Tag, error) {
	args := m.Called(ctx, organizationID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tag), args.Error(1)
}

func (m *MockTagRepository) ListByOrganization(ctx context.Context, organizationID uint) ([]*models.Tag, error) {
	args := m.Called(ctx, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Tag), args.Error(1)
}

// MockQuestionRepository is a mock implementation of QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

func (m *MockQuestionRepository) Create(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByIDWithRevisions(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Question), args.Error(1)
}

func (m *MockQuestionRepository) Update(ctx context.Context, question *models.Question) error {
	args := m.Called(ctx, question)
	return args.Error(0)
}

func (m *MockQuestionRepository) SoftDelete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Question), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuestionRepository) SetLastRevision(ctx context.Context, questionID, revisionID uint) error {
	args := m.Called(ctx, questionID, revisionID)
	return args.Error(0)
}

func (m *MockQuestionRepository) ReplaceTags(ctx context.Context, questionID uint, tags []models.Tag) error {
	args := m.Called(ctx, questionID, tags)
	return args.Error(0)
}

// MockRepository aggregates the entity mocks behind the Repository interface.
// WithTransaction just runs the callback against the same mocks.
type MockRepository struct {
	orgRepo       *MockOrganizationRepository
	tagRepo       *MockTagRepository
	questionRepo  *MockQuestionRepository
	testRepo      *MockTestRepository
	candidateRepo *MockCandidateRepository
	sessionRepo   *MockCandidateTestRepository
	answerRepo    *MockCandidateTestAnswerRepository
	revisionRepo  *MockQuestionRevisionRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		orgRepo:       &MockOrganizationRepository{},
		tagRepo:       &MockTagRepository{},
		questionRepo:  &MockQuestionRepository{},
		testRepo:      &MockTestRepository{},
		candidateRepo: &MockCandidateRepository{},
		sessionRepo:   &MockCandidateTestRepository{},
		answerRepo:    &MockCandidateTestAnswerRepository{},
		revisionRepo:  &MockQuestionRevisionRepository{},
	}
}

func (m *MockRepository) Organization() repositories.OrganizationRepository { return m.orgRepo }
func (m *MockRepository) Tag() repositories.TagRepository                   { return m.tagRepo }
func (m *MockRepository) Question() repositories.QuestionRepository         { return m.questionRepo }
func (m *MockRepository) User() repositories.UserRepository                 { return nil }

func (m *MockRepository) QuestionRevision() repositories.QuestionRevisionRepository {
	return m.revisionRepo
}

func (m *MockRepository) Test() repositories.TestRepository { return m.testRepo }

func (m *MockRepository) Candidate() repositories.CandidateRepository { return m.candidateRepo }

func (m *MockRepository) CandidateTest() repositories.CandidateTestRepository { return m.sessionRepo }

func (m *MockRepository) CandidateTestAnswer() repositories.CandidateTestAnswerRepository {
	return m.answerRepo
}

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *MockRepository) assertExpectations(t mock.TestingT) {
	m.orgRepo.AssertExpectations(t)
	m.tagRepo.AssertExpectations(t)
	m.questionRepo.AssertExpectations(t)
	m.testRepo.AssertExpectations(t)
	m.candidateRepo.AssertExpectations(t)
	m.sessionRepo.AssertExpectations(t)
	m.answerRepo.AssertExpectations(t)
	m.revisionRepo.AssertExpectations(t)
}
