package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openassess/testing-service/internal/models"
	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/services"
	"github.com/openassess/testing-service/internal/utils"
)

// QuestionHandler exposes question and revision management plus bulk import
type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importService   services.ImportExportService
}

func NewQuestionHandler(questionService services.QuestionService, importService services.ImportExportService, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		importService:   importService,
	}
}

// CreateQuestion creates a question with its first revision
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating question", "organization_id", req.OrganizationID)

	question, err := h.questionService.Create(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// GetQuestion returns a question, optionally with its full revision history
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	var (
		question interface{}
		err      error
	)
	if c.Query("include_revisions") == "true" {
		question, err = h.questionService.GetByIDWithRevisions(c.Request.Context(), id)
	} else {
		question, err = h.questionService.GetByID(c.Request.Context(), id)
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// ListQuestions lists questions with pagination and filtering
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	filters := h.parseQuestionFilters(c)

	questions, total, err := h.questionService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: questions, Total: total})
}

// DeleteQuestion soft-deletes a question
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted successfully"})
}

// CreateRevision supersedes a question's content with a new revision
func (h *QuestionHandler) CreateRevision(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	var req services.RevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	revision, err := h.questionService.CreateRevision(c.Request.Context(), id, &req, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, revision)
}

// ListRevisions returns a question's revision history, oldest first
func (h *QuestionHandler) ListRevisions(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	revisions, err := h.questionService.ListRevisions(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, revisions)
}

// SetTags replaces a question's tag set
func (h *QuestionHandler) SetTags(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	var req struct {
		TagIDs []uint `json:"tag_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := h.questionService.SetTags(c.Request.Context(), id, req.TagIDs); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Tags updated successfully"})
}

// ImportQuestions bulk-imports questions from an uploaded CSV or Excel file
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	organizationID := parseIntQuery(c, "organization_id", 0)
	if organizationID <= 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid organization_id",
			Details: "must be a positive integer",
		})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing questions",
		"filename", header.Filename,
		"organization_id", organizationID)

	summary, err := h.importService.ImportQuestionsFromFile(c.Request.Context(), file, header.Filename, uint(organizationID), currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ExportQuestions returns the selected questions as a CSV download
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	var req struct {
		QuestionIDs []uint `json:"question_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	data, err := h.importService.ExportQuestionsToCSV(c.Request.Context(), req.QuestionIDs)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=questions.csv")
	c.Data(http.StatusOK, "text/csv", data)
}

// ===== HELPERS =====

func (h *QuestionHandler) parseQuestionFilters(c *gin.Context) repositories.QuestionFilters {
	filters := repositories.QuestionFilters{
		IncludeInactive: c.Query("include_inactive") == "true",
		Limit:           parseIntQuery(c, "limit", 50),
		Offset:          parseIntQuery(c, "offset", 0),
		SortBy:          c.DefaultQuery("sort_by", "created_at"),
		SortOrder:       c.DefaultQuery("sort_order", "desc"),
	}

	if v := c.Query("type"); v != "" {
		questionType := models.QuestionType(v)
		filters.Type = &questionType
	}
	if v := parseIntQuery(c, "organization_id", 0); v > 0 {
		orgID := uint(v)
		filters.OrganizationID = &orgID
	}
	if v := c.Query("created_by"); v != "" {
		filters.CreatedBy = &v
	}
	if v := c.QueryArray("tag_id"); len(v) > 0 {
		for _, raw := range v {
			if id := parseQueryUint(raw); id > 0 {
				filters.TagIDs = append(filters.TagIDs, id)
			}
		}
	}

	return filters
}
