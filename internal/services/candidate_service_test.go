package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openassess/testing-service/internal/events"
	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/validator"
)

func newTestCandidateService(repo *MockRepository) (CandidateService, *events.MockEventPublisher) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := events.NewMockEventPublisher(logger)
	return NewCandidateService(repo, logger, validator.New(), publisher), publisher
}

func activeTest(id uint) *models.Test {
	return &models.Test{
		ID:       id,
		Name:     "Sample Test",
		IsActive: true,
	}
}

func sessionWithCandidate(id uint, testID uint, identity string) *models.CandidateTest {
	return &models.CandidateTest{
		ID:          id,
		CandidateID: 5,
		TestID:      testID,
		StartTime:   time.Now().Add(-10 * time.Minute),
		Candidate:   models.Candidate{ID: 5, Identity: identity},
	}
}

func TestCandidateService_StartTest(t *testing.T) {
	repo := newMockRepository()
	service, publisher := newTestCandidateService(repo)

	test := activeTest(1)
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)
	repo.testRepo.On("GetQuestionRevisions", mock.Anything, uint(1)).
		Return(makeAssociations(10, 20, 30), nil)

	repo.candidateRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Candidate) bool {
		return c.Identity != ""
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Candidate).ID = 5
	}).Return(nil)

	repo.sessionRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *models.CandidateTest) bool {
		return s.TestID == 1 && s.CandidateID == 5 && len(s.QuestionRevisionIDs) == 3
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.CandidateTest).ID = 42
	}).Return(nil)

	resp, err := service.StartTest(context.Background(), &StartTestRequest{TestID: 1})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.CandidateUUID)
	assert.Equal(t, uint(42), resp.CandidateTestID)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventSessionStarted, published[0].Type)

	repo.assertExpectations(t)
}

func TestCandidateService_StartTest_Window(t *testing.T) {
	tests := []struct {
		name        string
		startOffset time.Duration
		endOffset   time.Duration
		expected    error
	}{
		{name: "not yet started", startOffset: time.Hour, endOffset: 2 * time.Hour, expected: ErrTestNotStarted},
		{name: "already ended", startOffset: -2 * time.Hour, endOffset: -time.Hour, expected: ErrTestEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMockRepository()
			service, _ := newTestCandidateService(repo)

			test := activeTest(1)
			test.StartTime = timePtr(time.Now().Add(tt.startOffset))
			test.EndTime = timePtr(time.Now().Add(tt.endOffset))
			repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)

			_, err := service.StartTest(context.Background(), &StartTestRequest{TestID: 1})
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCandidateService_StartTest_InactiveTest(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	test := activeTest(1)
	test.IsActive = false
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)

	_, err := service.StartTest(context.Background(), &StartTestRequest{TestID: 1})
	assert.ErrorIs(t, err, ErrTestNotFound)
}

func TestCandidateService_StartTest_NoQuestions(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(activeTest(1), nil)
	repo.testRepo.On("GetQuestionRevisions", mock.Anything, uint(1)).
		Return([]*models.TestQuestion{}, nil)

	_, err := service.StartTest(context.Background(), &StartTestRequest{TestID: 1})
	assert.ErrorIs(t, err, ErrNoQuestionsInTest)
}

func TestCandidateService_StartTest_RegisteredCandidate(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	userID := "user-7"
	test := activeTest(1)
	test.NoOfAttempts = 2
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)
	repo.testRepo.On("GetQuestionRevisions", mock.Anything, uint(1)).
		Return(makeAssociations(10, 20), nil)
	repo.sessionRepo.On("CountByUserAndTest", mock.Anything, userID, uint(1)).Return(1, nil)

	repo.candidateRepo.On("Create", mock.Anything, mock.MatchedBy(func(c *models.Candidate) bool {
		return c.UserID != nil && *c.UserID == userID
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Candidate).ID = 6
	}).Return(nil)
	repo.sessionRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.CandidateTest")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*models.CandidateTest).ID = 43
		}).Return(nil)

	resp, err := service.StartTest(context.Background(), &StartTestRequest{TestID: 1, CandidateProfile: &userID})
	require.NoError(t, err)
	assert.Equal(t, uint(43), resp.CandidateTestID)

	repo.assertExpectations(t)
}

func TestCandidateService_StartTest_AttemptLimit(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	userID := "user-7"
	test := activeTest(1)
	test.NoOfAttempts = 1
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)
	repo.testRepo.On("GetQuestionRevisions", mock.Anything, uint(1)).
		Return(makeAssociations(10, 20), nil)
	repo.sessionRepo.On("CountByUserAndTest", mock.Anything, userID, uint(1)).Return(1, nil)

	_, err := service.StartTest(context.Background(), &StartTestRequest{TestID: 1, CandidateProfile: &userID})
	assert.ErrorIs(t, err, ErrAttemptLimitExceeded)
}

func TestCandidateService_GetTestQuestions_SnapshotOrder(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	session.QuestionRevisionIDs = datatypes.NewJSONSlice([]uint{30, 10, 20})
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(activeTest(1), nil)

	// Repository returns revisions in id order; the response must follow the
	// snapshot instead.
	revisions := []*models.QuestionRevision{
		{ID: 10, QuestionText: "q10", CorrectAnswer: datatypes.JSON(`[0]`)},
		{ID: 20, QuestionText: "q20", CorrectAnswer: datatypes.JSON(`[1]`)},
		{ID: 30, QuestionText: "q30", CorrectAnswer: datatypes.JSON(`[2]`)},
	}
	repo.revisionRepo.On("GetByIDs", mock.Anything, []uint(session.QuestionRevisionIDs)).
		Return(revisions, nil)

	resp, err := service.GetTestQuestions(context.Background(), 42, "uuid-1")
	require.NoError(t, err)

	require.Len(t, resp.Questions, 3)
	assert.Equal(t, uint(30), resp.Questions[0].ID)
	assert.Equal(t, uint(10), resp.Questions[1].ID)
	assert.Equal(t, uint(20), resp.Questions[2].ID)
}

func TestCandidateService_GetTestQuestions_UUIDMismatch(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)

	_, err := service.GetTestQuestions(context.Background(), 42, "wrong-uuid")
	assert.ErrorIs(t, err, ErrCandidateTestNotFound)
}

func TestCandidateService_GetTestQuestions_MissingSession(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(99)).
		Return(nil, gorm.ErrRecordNotFound)

	_, err := service.GetTestQuestions(context.Background(), 99, "uuid-1")
	assert.ErrorIs(t, err, ErrCandidateTestNotFound)
}

func TestCandidateService_SubmitAnswer_CreatesThenUpdates(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)

	// First submission: no existing row, insert.
	repo.answerRepo.On("GetBySessionAndRevision", mock.Anything, uint(42), uint(10)).
		Return(nil, nil).Once()
	repo.answerRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.CandidateTestAnswer) bool {
		return a.CandidateTestID == 42 && a.QuestionRevisionID == 10
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.CandidateTestAnswer).ID = 7
	}).Return(nil).Once()

	first, err := service.SubmitAnswer(context.Background(), 42, "uuid-1", &AnswerSubmission{
		QuestionRevisionID: 10,
		Response:           datatypes.JSON(`[1]`),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), first.ID)

	// Second submission for the same revision: the existing row is updated
	// in place, no new row.
	existing := &models.CandidateTestAnswer{
		ID:                 7,
		CandidateTestID:    42,
		QuestionRevisionID: 10,
		Response:           datatypes.JSON(`[1]`),
	}
	repo.answerRepo.On("GetBySessionAndRevision", mock.Anything, uint(42), uint(10)).
		Return(existing, nil).Once()
	repo.answerRepo.On("Update", mock.Anything, mock.MatchedBy(func(a *models.CandidateTestAnswer) bool {
		return a.ID == 7 && string(a.Response) == `[2]`
	})).Return(nil).Once()

	second, err := service.SubmitAnswer(context.Background(), 42, "uuid-1", &AnswerSubmission{
		QuestionRevisionID: 10,
		Response:           datatypes.JSON(`[2]`),
	})
	require.NoError(t, err)
	assert.Equal(t, uint(7), second.ID)

	repo.assertExpectations(t)
}

func TestCandidateService_SubmitAnswers_Batch(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)

	for _, revisionID := range []uint{10, 20} {
		id := revisionID
		repo.answerRepo.On("GetBySessionAndRevision", mock.Anything, uint(42), id).
			Return(nil, nil)
		repo.answerRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.CandidateTestAnswer) bool {
			return a.QuestionRevisionID == id
		})).Return(nil)
	}

	results, err := service.SubmitAnswers(context.Background(), 42, "uuid-1", []AnswerSubmission{
		{QuestionRevisionID: 10, Response: datatypes.JSON(`[0]`)},
		{QuestionRevisionID: 20, Response: datatypes.JSON(`[1]`)},
	})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, uint(10), results[0].QuestionRevisionID)
	assert.Equal(t, uint(20), results[1].QuestionRevisionID)
}

func TestCandidateService_SubmitAnswers_Empty(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)

	results, err := service.SubmitAnswers(context.Background(), 42, "uuid-1", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestCandidateService_SubmitTest(t *testing.T) {
	repo := newMockRepository()
	service, publisher := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)
	repo.sessionRepo.On("MarkSubmitted", mock.Anything, uint(42), mock.AnythingOfType("time.Time")).
		Return(true, nil)

	test := activeTest(1)
	message := "Thanks for taking the test"
	test.CompletionMessage = &message
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)

	resp, err := service.SubmitTest(context.Background(), 42, "uuid-1")
	require.NoError(t, err)

	assert.True(t, resp.IsSubmitted)
	assert.Equal(t, &message, resp.CompletionMessage)
	assert.False(t, resp.EndTime.IsZero())

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventSessionSubmitted, published[0].Type)
}

func TestCandidateService_SubmitTest_AlreadySubmitted(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)
	repo.sessionRepo.On("MarkSubmitted", mock.Anything, uint(42), mock.AnythingOfType("time.Time")).
		Return(false, nil)

	_, err := service.SubmitTest(context.Background(), 42, "uuid-1")
	assert.ErrorIs(t, err, ErrTestAlreadySubmitted)
}

func TestCandidateService_TimeLeft(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	session.StartTime = time.Now().Add(-2 * time.Minute)
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)

	test := activeTest(1)
	test.TimeLimit = intPtr(60)
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)

	resp, err := service.TimeLeft(context.Background(), 42, "uuid-1")
	require.NoError(t, err)
	require.NotNil(t, resp.TimeLeft)
	assert.InDelta(t, 3480, *resp.TimeLeft, 2)
}

func TestCandidateService_TimeLeft_Unbounded(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(activeTest(1), nil)

	resp, err := service.TimeLeft(context.Background(), 42, "uuid-1")
	require.NoError(t, err)
	assert.Nil(t, resp.TimeLeft)
}

func TestCandidateService_GetResult(t *testing.T) {
	repo := newMockRepository()
	service, publisher := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)

	test := activeTest(1)
	test.ShowResult = true
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)

	associations := []*models.TestQuestion{
		{
			QuestionRevisionID: 10,
			QuestionRevision: models.QuestionRevision{
				ID:            10,
				CorrectAnswer: datatypes.JSON(`[1]`),
				IsMandatory:   true,
			},
		},
		{
			QuestionRevisionID: 20,
			QuestionRevision: models.QuestionRevision{
				ID:            20,
				CorrectAnswer: datatypes.JSON(`[2]`),
				IsMandatory:   true,
			},
		},
	}
	repo.testRepo.On("GetQuestionRevisions", mock.Anything, uint(1)).Return(associations, nil)

	answers := []*models.CandidateTestAnswer{
		{QuestionRevisionID: 10, Response: datatypes.JSON(`[1]`)},
		{QuestionRevisionID: 20, Response: datatypes.JSON(`[0]`)},
	}
	repo.answerRepo.On("GetBySession", mock.Anything, uint(42)).Return(answers, nil)

	result, err := service.GetResult(context.Background(), 42, "uuid-1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.CorrectAnswer)
	assert.Equal(t, 1, result.IncorrectAnswer)
	assert.Equal(t, 0, result.MandatoryNotAttempted)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventResultComputed, published[0].Type)
}

func TestCandidateService_GetResult_Hidden(t *testing.T) {
	repo := newMockRepository()
	service, _ := newTestCandidateService(repo)

	session := sessionWithCandidate(42, 1, "uuid-1")
	repo.sessionRepo.On("GetByIDWithCandidate", mock.Anything, uint(42)).Return(session, nil)

	test := activeTest(1)
	test.ShowResult = false
	repo.testRepo.On("GetByID", mock.Anything, uint(1)).Return(test, nil)

	_, err := service.GetResult(context.Background(), 42, "uuid-1")
	assert.ErrorIs(t, err, ErrResultNotVisible)
}
