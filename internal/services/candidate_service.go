package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/openassess/testing-service/internal/events"
	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/validator"
)

// CandidateService covers the anonymous test-taking flow: session creation,
// answer upserts, finalization, timing and scoring. The candidate UUID
// returned by StartTest is the sole credential for every later call.
type CandidateService interface {
	StartTest(ctx context.Context, req *StartTestRequest) (*StartTestResponse, error)
	GetTestQuestions(ctx context.Context, candidateTestID uint, candidateUUID string) (*SessionQuestionsResponse, error)
	SubmitAnswer(ctx context.Context, candidateTestID uint, candidateUUID string, submission *AnswerSubmission) (*AnswerResponse, error)
	SubmitAnswers(ctx context.Context, candidateTestID uint, candidateUUID string, submissions []AnswerSubmission) ([]AnswerResponse, error)
	SubmitTest(ctx context.Context, candidateTestID uint, candidateUUID string) (*SubmitTestResponse, error)
	TimeLeft(ctx context.Context, candidateTestID uint, candidateUUID string) (*TimeLeftResponse, error)
	GetResult(ctx context.Context, candidateTestID uint, candidateUUID string) (*models.TestResult, error)
}

// ===== REQUEST / RESPONSE TYPES =====

type StartTestRequest struct {
	TestID           uint    `json:"test_id" validate:"required"`
	DeviceInfo       *string `json:"device_info"`
	Consent          bool    `json:"consent"`
	CandidateProfile *string `json:"candidate_profile"`
}

type StartTestResponse struct {
	CandidateUUID   string `json:"candidate_uuid"`
	CandidateTestID uint   `json:"candidate_test_id"`
}

type AnswerSubmission struct {
	QuestionRevisionID uint           `json:"question_revision_id" validate:"required"`
	Response           datatypes.JSON `json:"response"`
	Visited            bool           `json:"visited"`
	TimeSpent          int            `json:"time_spent" validate:"min=0"`
}

type AnswerResponse struct {
	ID                 uint `json:"id"`
	QuestionRevisionID uint `json:"question_revision_id"`
}

type BatchAnswerRequest struct {
	Answers []AnswerSubmission `json:"answers"`
}

type SessionQuestionsResponse struct {
	CandidateTestID    uint                       `json:"candidate_test_id"`
	TestID             uint                       `json:"test_id"`
	TestName           string                     `json:"test_name"`
	Description        *string                    `json:"description,omitempty"`
	StartInstructions  *string                    `json:"start_instructions,omitempty"`
	TimeLimit          *int                       `json:"time_limit,omitempty"`
	QuestionPagination int                        `json:"question_pagination"`
	Questions          []models.CandidateQuestion `json:"questions"`
}

type SubmitTestResponse struct {
	CandidateTestID   uint      `json:"candidate_test_id"`
	IsSubmitted       bool      `json:"is_submitted"`
	EndTime           time.Time `json:"end_time"`
	CompletionMessage *string   `json:"completion_message,omitempty"`
}

type TimeLeftResponse struct {
	TimeLeft *int `json:"time_left"`
}

// ===== IMPLEMENTATION =====

type candidateService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewCandidateService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, publisher events.EventPublisher) CandidateService {
	return &candidateService{
		repo:      repo,
		logger:    logger,
		validator: v,
		publisher: publisher,
	}
}

func (s *candidateService) StartTest(ctx context.Context, req *StartTestRequest) (*StartTestResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	test, err := s.repo.Test().GetByID(ctx, req.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if !test.Effective() {
		return nil, ErrTestNotFound
	}

	now := time.Now()
	if test.StartTime != nil && now.Before(*test.StartTime) {
		return nil, ErrTestNotStarted
	}
	if test.EndTime != nil && !now.Before(*test.EndTime) {
		return nil, ErrTestEnded
	}

	associations, err := s.repo.Test().GetQuestionRevisions(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test questions: %w", err)
	}
	if len(associations) == 0 {
		return nil, ErrNoQuestionsInTest
	}

	order, err := buildQuestionOrder(test, associations)
	if err != nil {
		return nil, err
	}

	// Registered candidates are attempt-limited across all their sessions;
	// anonymous (QR) candidates are a fresh identity per session.
	if req.CandidateProfile != nil {
		attempts, err := s.repo.CandidateTest().CountByUserAndTest(ctx, *req.CandidateProfile, test.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count attempts: %w", err)
		}
		if attempts >= test.NoOfAttempts {
			return nil, ErrAttemptLimitExceeded
		}
	}

	candidate := &models.Candidate{
		UserID:   req.CandidateProfile,
		Identity: uuid.NewString(),
	}
	session := &models.CandidateTest{
		TestID:              test.ID,
		Device:              req.DeviceInfo,
		Consent:             req.Consent,
		StartTime:           now,
		QuestionRevisionIDs: datatypes.NewJSONSlice(order),
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Candidate().Create(ctx, candidate); err != nil {
			return fmt.Errorf("failed to create candidate: %w", err)
		}
		session.CandidateID = candidate.ID
		if err := tx.CandidateTest().Create(ctx, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewSessionEvent(events.EventSessionStarted, events.SessionStartedEvent{
		CandidateTestID: session.ID,
		TestID:          test.ID,
		TestName:        test.Name,
		CandidateID:     candidate.ID,
		StartedAt:       session.StartTime,
		QuestionCount:   len(order),
		TimeLimit:       test.TimeLimit,
	}))

	s.logger.Info("Candidate test session started",
		"candidate_test_id", session.ID,
		"test_id", test.ID,
		"question_count", len(order))

	return &StartTestResponse{
		CandidateUUID:   candidate.Identity,
		CandidateTestID: session.ID,
	}, nil
}

func (s *candidateService) GetTestQuestions(ctx context.Context, candidateTestID uint, candidateUUID string) (*SessionQuestionsResponse, error) {
	session, err := s.resolveSession(ctx, candidateTestID, candidateUUID)
	if err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, session.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	revisions, err := s.repo.QuestionRevision().GetByIDs(ctx, session.QuestionRevisionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get question revisions: %w", err)
	}

	byID := make(map[uint]*models.QuestionRevision, len(revisions))
	for _, rev := range revisions {
		byID[rev.ID] = rev
	}

	// Snapshot order, not query order.
	questions := make([]models.CandidateQuestion, 0, len(session.QuestionRevisionIDs))
	for _, id := range session.QuestionRevisionIDs {
		rev, ok := byID[id]
		if !ok {
			return nil, ErrRevisionNotFound
		}
		questions = append(questions, rev.CandidateView())
	}

	return &SessionQuestionsResponse{
		CandidateTestID:    session.ID,
		TestID:             test.ID,
		TestName:           test.Name,
		Description:        test.Description,
		StartInstructions:  test.StartInstructions,
		TimeLimit:          test.TimeLimit,
		QuestionPagination: test.QuestionPagination,
		Questions:          questions,
	}, nil
}

func (s *candidateService) SubmitAnswer(ctx context.Context, candidateTestID uint, candidateUUID string, submission *AnswerSubmission) (*AnswerResponse, error) {
	if err := s.validator.Validate(submission); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	session, err := s.resolveSession(ctx, candidateTestID, candidateUUID)
	if err != nil {
		return nil, err
	}

	return s.upsertAnswer(ctx, session.ID, submission)
}

func (s *candidateService) SubmitAnswers(ctx context.Context, candidateTestID uint, candidateUUID string, submissions []AnswerSubmission) ([]AnswerResponse, error) {
	session, err := s.resolveSession(ctx, candidateTestID, candidateUUID)
	if err != nil {
		return nil, err
	}

	// Each tuple upserts independently; results come back in input order.
	results := make([]AnswerResponse, 0, len(submissions))
	for i := range submissions {
		resp, err := s.upsertAnswer(ctx, session.ID, &submissions[i])
		if err != nil {
			return nil, err
		}
		results = append(results, *resp)
	}

	return results, nil
}

func (s *candidateService) SubmitTest(ctx context.Context, candidateTestID uint, candidateUUID string) (*SubmitTestResponse, error) {
	session, err := s.resolveSession(ctx, candidateTestID, candidateUUID)
	if err != nil {
		return nil, err
	}

	endTime := time.Now()
	updated, err := s.repo.CandidateTest().MarkSubmitted(ctx, session.ID, endTime)
	if err != nil {
		return nil, fmt.Errorf("failed to submit test: %w", err)
	}
	if !updated {
		return nil, ErrTestAlreadySubmitted
	}

	test, err := s.repo.Test().GetByID(ctx, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	s.publishEvent(ctx, events.NewSessionEvent(events.EventSessionSubmitted, events.SessionSubmittedEvent{
		CandidateTestID: session.ID,
		TestID:          test.ID,
		TestName:        test.Name,
		CandidateID:     session.CandidateID,
		SubmittedAt:     endTime,
	}))

	s.logger.Info("Candidate test submitted",
		"candidate_test_id", session.ID,
		"test_id", session.TestID)

	return &SubmitTestResponse{
		CandidateTestID:   session.ID,
		IsSubmitted:       true,
		EndTime:           endTime,
		CompletionMessage: test.CompletionMessage,
	}, nil
}

func (s *candidateService) TimeLeft(ctx context.Context, candidateTestID uint, candidateUUID string) (*TimeLeftResponse, error) {
	session, err := s.resolveSession(ctx, candidateTestID, candidateUUID)
	if err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	return &TimeLeftResponse{
		TimeLeft: computeTimeLeft(test, session, time.Now()),
	}, nil
}

func (s *candidateService) GetResult(ctx context.Context, candidateTestID uint, candidateUUID string) (*models.TestResult, error) {
	session, err := s.resolveSession(ctx, candidateTestID, candidateUUID)
	if err != nil {
		return nil, err
	}

	test, err := s.repo.Test().GetByID(ctx, session.TestID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test: %w", err)
	}
	if !test.ShowResult {
		return nil, ErrResultNotVisible
	}

	// The scoring pass walks everything associated with the test, not just
	// the session snapshot, so non-attempted counts cover sampled-out
	// questions the same way the admin result view does.
	associations, err := s.repo.Test().GetQuestionRevisions(ctx, test.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get test questions: %w", err)
	}

	answers, err := s.repo.CandidateTestAnswer().GetBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answers: %w", err)
	}

	result := scoreSession(associations, answers)

	s.publishEvent(ctx, events.NewSessionEvent(events.EventResultComputed, events.ResultComputedEvent{
		CandidateTestID:       session.ID,
		TestID:                test.ID,
		CorrectAnswer:         result.CorrectAnswer,
		IncorrectAnswer:       result.IncorrectAnswer,
		MandatoryNotAttempted: result.MandatoryNotAttempted,
		OptionalNotAttempted:  result.OptionalNotAttempted,
	}))

	return result, nil
}

// ===== INTERNAL HELPERS =====

// resolveSession loads a session and authenticates it against the candidate
// UUID. Both a missing session and a mismatching UUID collapse into the same
// not-found error so the endpoint leaks nothing about which one failed.
func (s *candidateService) resolveSession(ctx context.Context, candidateTestID uint, candidateUUID string) (*models.CandidateTest, error) {
	session, err := s.repo.CandidateTest().GetByIDWithCandidate(ctx, candidateTestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCandidateTestNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.Candidate.Identity != candidateUUID {
		return nil, ErrCandidateTestNotFound
	}

	return session, nil
}

func (s *candidateService) upsertAnswer(ctx context.Context, sessionID uint, submission *AnswerSubmission) (*AnswerResponse, error) {
	existing, err := s.repo.CandidateTestAnswer().GetBySessionAndRevision(ctx, sessionID, submission.QuestionRevisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up answer: %w", err)
	}

	if existing != nil {
		existing.Response = submission.Response
		existing.Visited = submission.Visited
		existing.TimeSpent = submission.TimeSpent
		if err := s.repo.CandidateTestAnswer().Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("failed to update answer: %w", err)
		}
		return &AnswerResponse{ID: existing.ID, QuestionRevisionID: existing.QuestionRevisionID}, nil
	}

	answer := &models.CandidateTestAnswer{
		CandidateTestID:    sessionID,
		QuestionRevisionID: submission.QuestionRevisionID,
		Response:           submission.Response,
		Visited:            submission.Visited,
		TimeSpent:          submission.TimeSpent,
	}
	if err := s.repo.CandidateTestAnswer().Create(ctx, answer); err != nil {
		return nil, fmt.Errorf("failed to create answer: %w", err)
	}

	return &AnswerResponse{ID: answer.ID, QuestionRevisionID: answer.QuestionRevisionID}, nil
}

func (s *candidateService) publishEvent(ctx context.Context, event *events.SessionEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish session event",
			"event_type", event.Type,
			"error", err)
	}
}
