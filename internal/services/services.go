package services

import (
	"log/slog"

	"github.com/openassess/testing-service/internal/cache"
	"github.com/openassess/testing-service/internal/events"
	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/validator"
)

// ServiceManager bundles every service behind one constructor so handlers
// and wiring code share a single dependency.
type ServiceManager interface {
	Candidate() CandidateService
	Test() TestService
	Question() QuestionService
	Organization() OrganizationService
	ImportExport() ImportExportService
}

type serviceManager struct {
	candidate    CandidateService
	test         TestService
	question     QuestionService
	organization OrganizationService
	importExport ImportExportService
}

func NewServiceManager(
	repo repositories.Repository,
	logger *slog.Logger,
	v *validator.Validator,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
) ServiceManager {
	return &serviceManager{
		candidate:    NewCandidateService(repo, logger, v, publisher),
		test:         NewTestService(repo, logger, v, cacheService, publisher),
		question:     NewQuestionService(repo, logger, v),
		organization: NewOrganizationService(repo, logger, v),
		importExport: NewImportExportService(repo, logger, v, publisher),
	}
}

func (m *serviceManager) Candidate() CandidateService       { return m.candidate }
func (m *serviceManager) Test() TestService                 { return m.test }
func (m *serviceManager) Question() QuestionService         { return m.question }
func (m *serviceManager) Organization() OrganizationService { return m.organization }
func (m *serviceManager) ImportExport() ImportExportService { return m.importExport }
