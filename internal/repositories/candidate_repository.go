package repositories

import (
	"context"
	"time"

	"github.com/openassess/testing-service/internal/models"
)

// CandidateRepository manages anonymous candidate identities.
type CandidateRepository interface {
	Create(ctx context.Context, candidate *models.Candidate) error
	GetByID(ctx context.Context, id uint) (*models.Candidate, error)
	GetByIdentity(ctx context.Context, identity string) (*models.Candidate, error)
	Update(ctx context.Context, candidate *models.Candidate) error
}

// CandidateTestRepository manages test sessions.
type CandidateTestRepository interface {
	Create(ctx context.Context, session *models.CandidateTest) error
	GetByID(ctx context.Context, id uint) (*models.CandidateTest, error)
	GetByIDWithCandidate(ctx context.Context, id uint) (*models.CandidateTest, error)
	GetByCandidateAndTest(ctx context.Context, candidateID, testID uint) (*models.CandidateTest, error)
	Update(ctx context.Context, session *models.CandidateTest) error

	// MarkSubmitted flips is_submitted and stamps end_time on a
	// not-yet-submitted session, reporting whether the row was actually
	// updated. A false return means the session was already submitted;
	// callers turn that into a conflict.
	MarkSubmitted(ctx context.Context, id uint, endTime time.Time) (bool, error)

	CountByUserAndTest(ctx context.Context, userID string, testID uint) (int, error)
	ListByTest(ctx context.Context, testID uint, filters SessionFilters) ([]*models.CandidateTest, int64, error)
}

// CandidateTestAnswerRepository manages per-question responses within a session.
type CandidateTestAnswerRepository interface {
	Create(ctx context.Context, answer *models.CandidateTestAnswer) error
	Update(ctx context.Context, answer *models.CandidateTestAnswer) error
	GetBySession(ctx context.Context, candidateTestID uint) ([]*models.CandidateTestAnswer, error)
	GetBySessionAndRevision(ctx context.Context, candidateTestID, revisionID uint) (*models.CandidateTestAnswer, error)
}
