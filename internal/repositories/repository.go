package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository aggregates all entity repositories behind a single handle.
// WithTransaction yields a Repository bound to one database transaction;
// the callback's error decides commit or rollback.
type Repository interface {
	Organization() OrganizationRepository
	Tag() TagRepository
	Question() QuestionRepository
	QuestionRevision() QuestionRevisionRepository
	Test() TestRepository
	Candidate() CandidateRepository
	CandidateTest() CandidateTestRepository
	CandidateTestAnswer() CandidateTestAnswerRepository
	User() UserRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
}

// IsNotFoundError reports whether err is the database driver's missing-row error
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError reports whether err is a unique-constraint violation
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
