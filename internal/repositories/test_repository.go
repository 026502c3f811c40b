package repositories

import (
	"context"

	"github.com/openassess/testing-service/internal/models"
)

// TestRepository manages test definitions and their question associations.
type TestRepository interface {
	Create(ctx context.Context, test *models.Test) error
	GetByID(ctx context.Context, id uint) (*models.Test, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Test, error)
	GetByLink(ctx context.Context, link string) (*models.Test, error)
	Update(ctx context.Context, test *models.Test) error
	SoftDelete(ctx context.Context, id uint) error

	List(ctx context.Context, filters TestFilters) ([]*models.Test, int64, error)

	// Question associations. GetQuestionRevisions returns rows in ascending
	// association id order, which is the base ordering sessions snapshot.
	AddQuestions(ctx context.Context, testID uint, revisionIDs []uint) error
	RemoveQuestion(ctx context.Context, testID, revisionID uint) error
	CountQuestions(ctx context.Context, testID uint) (int, error)
	GetQuestionRevisions(ctx context.Context, testID uint) ([]*models.TestQuestion, error)
}
