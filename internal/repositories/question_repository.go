package repositories

import (
	"context"

	"github.com/openassess/testing-service/internal/models"
)

// QuestionRepository manages question metadata rows. Content changes go
// through QuestionRevisionRepository; this repository only repoints
// last_revision_id.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByIDWithRevisions(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	SoftDelete(ctx context.Context, id uint) error

	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)
	SetLastRevision(ctx context.Context, questionID, revisionID uint) error

	ReplaceTags(ctx context.Context, questionID uint, tags []models.Tag) error
}

// QuestionRevisionRepository manages immutable content snapshots.
// There is no Update: superseding content means inserting a new revision.
type QuestionRevisionRepository interface {
	Create(ctx context.Context, revision *models.QuestionRevision) error
	GetByID(ctx context.Context, id uint) (*models.QuestionRevision, error)
	GetByIDs(ctx context.Context, ids []uint) ([]*models.QuestionRevision, error)
	GetLatestByQuestion(ctx context.Context, questionID uint) (*models.QuestionRevision, error)
	ListByQuestion(ctx context.Context, questionID uint) ([]*models.QuestionRevision, error)
}
