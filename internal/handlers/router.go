package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/services"
	"github.com/openassess/testing-service/internal/utils"
)

type HandlerManager struct {
	candidateHandler    *CandidateHandler
	testHandler         *TestHandler
	questionHandler     *QuestionHandler
	organizationHandler *OrganizationHandler
	auth                *AuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	repo repositories.Repository,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		candidateHandler:    NewCandidateHandler(serviceManager.Candidate(), logger),
		testHandler:         NewTestHandler(serviceManager.Test(), serviceManager.ImportExport(), logger),
		questionHandler:     NewQuestionHandler(serviceManager.Question(), serviceManager.ImportExport(), logger),
		organizationHandler: NewOrganizationHandler(serviceManager.Organization(), logger),
		auth:                NewAuthMiddleware(repo.User(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		// Candidate routes: unauthenticated, session-scoped via candidate_uuid
		candidate := v1.Group("/candidate")
		{
			candidate.POST("/start_test", hm.candidateHandler.StartTest)
			candidate.GET("/test_questions/:candidate_test_id", hm.candidateHandler.GetTestQuestions)
			candidate.POST("/submit_answer/:candidate_test_id", hm.candidateHandler.SubmitAnswer)
			candidate.POST("/submit_answers/:candidate_test_id", hm.candidateHandler.SubmitAnswers)
			candidate.POST("/submit_test/:candidate_test_id", hm.candidateHandler.SubmitTest)
			candidate.GET("/time_left/:candidate_test_id", hm.candidateHandler.TimeLeft)
			candidate.GET("/result/:candidate_test_id", hm.candidateHandler.GetResult)
		}

		// Public link resolution happens before a candidate authenticates
		v1.GET("/tests/link/:link", hm.testHandler.GetTestByLink)

		// Admin routes: Casdoor bearer token required
		admin := v1.Group("")
		admin.Use(hm.auth.RequireAuth())
		{
			tests := admin.Group("/tests")
			{
				tests.POST("", hm.testHandler.CreateTest)
				tests.POST("/from_template/:template_id", hm.testHandler.CreateFromTemplate)
				tests.GET("", hm.testHandler.ListTests)
				tests.GET("/:id", hm.testHandler.GetTest)
				tests.PUT("/:id", hm.testHandler.UpdateTest)
				tests.DELETE("/:id", hm.testHandler.DeleteTest)
				tests.POST("/:id/questions", hm.testHandler.AddQuestions)
				tests.DELETE("/:id/questions/:revision_id", hm.testHandler.RemoveQuestion)
				tests.GET("/:id/sessions", hm.testHandler.ListSessions)
				tests.GET("/:id/results/export", hm.testHandler.ExportResults)
			}

			questions := admin.Group("/questions")
			{
				questions.POST("", hm.questionHandler.CreateQuestion)
				questions.GET("", hm.questionHandler.ListQuestions)
				questions.GET("/:id", hm.questionHandler.GetQuestion)
				questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
				questions.POST("/:id/revisions", hm.questionHandler.CreateRevision)
				questions.GET("/:id/revisions", hm.questionHandler.ListRevisions)
				questions.PUT("/:id/tags", hm.questionHandler.SetTags)
				questions.POST("/import", hm.questionHandler.ImportQuestions)
				questions.POST("/export", hm.questionHandler.ExportQuestions)
			}

			organizations := admin.Group("/organizations")
			organizations.Use(hm.auth.RequireRole(models.RoleOrgAdmin, models.RoleSuperAdmin))
			{
				organizations.POST("", hm.organizationHandler.CreateOrganization)
				organizations.GET("", hm.organizationHandler.ListOrganizations)
				organizations.GET("/:id", hm.organizationHandler.GetOrganization)
				organizations.GET("/:id/tags", hm.organizationHandler.ListTags)
				organizations.POST("/tags", hm.organizationHandler.CreateTag)
			}
		}
	}
}
