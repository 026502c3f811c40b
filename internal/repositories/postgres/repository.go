package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/openassess/testing-service/internal/repositories"
)

// Repository is the gorm-backed aggregate. Entity repositories share one
// *gorm.DB handle; WithTransaction rebinds them all to a transaction.
type Repository struct {
	db *gorm.DB

	organization        repositories.OrganizationRepository
	tag                 repositories.TagRepository
	question            repositories.QuestionRepository
	questionRevision    repositories.QuestionRevisionRepository
	test                repositories.TestRepository
	candidate           repositories.CandidateRepository
	candidateTest       repositories.CandidateTestRepository
	candidateTestAnswer repositories.CandidateTestAnswerRepository
	user                repositories.UserRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:                  db,
		organization:        NewOrganizationPostgreSQL(db),
		tag:                 NewTagPostgreSQL(db),
		question:            NewQuestionPostgreSQL(db),
		questionRevision:    NewQuestionRevisionPostgreSQL(db),
		test:                NewTestPostgreSQL(db),
		candidate:           NewCandidatePostgreSQL(db),
		candidateTest:       NewCandidateTestPostgreSQL(db),
		candidateTestAnswer: NewCandidateTestAnswerPostgreSQL(db),
		user:                NewUserPostgreSQL(db),
	}
}

func (r *Repository) Organization() repositories.OrganizationRepository { return r.organization }
func (r *Repository) Tag() repositories.TagRepository                   { return r.tag }
func (r *Repository) Question() repositories.QuestionRepository        { return r.question }
func (r *Repository) QuestionRevision() repositories.QuestionRevisionRepository {
	return r.questionRevision
}
func (r *Repository) Test() repositories.TestRepository           { return r.test }
func (r *Repository) Candidate() repositories.CandidateRepository { return r.candidate }
func (r *Repository) CandidateTest() repositories.CandidateTestRepository {
	return r.candidateTest
}
func (r *Repository) CandidateTestAnswer() repositories.CandidateTestAnswerRepository {
	return r.candidateTestAnswer
}
func (r *Repository) User() repositories.UserRepository { return r.user }

func (r *Repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
