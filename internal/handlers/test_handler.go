package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openassess/testing-service/internal/repositories"
	"github.com/openassess/testing-service/internal/services"
	"github.com/openassess/testing-service/internal/utils"
)

// TestHandler exposes the admin surface for test definitions
type TestHandler struct {
	BaseHandler
	testService   services.TestService
	exportService services.ImportExportService
}

func NewTestHandler(testService services.TestService, exportService services.ImportExportService, logger utils.Logger) *TestHandler {
	return &TestHandler{
		BaseHandler:   NewBaseHandler(logger),
		testService:   testService,
		exportService: exportService,
	}
}

// CreateTest creates a new test definition with its question associations
func (h *TestHandler) CreateTest(c *gin.Context) {
	var req services.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating test", "name", req.Name)

	test, err := h.testService.Create(c.Request.Context(), &req, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}

// CreateFromTemplate instantiates a test from a template definition
func (h *TestHandler) CreateFromTemplate(c *gin.Context) {
	templateID := parseUintParam(c, "template_id")
	if templateID == 0 {
		return
	}

	var req services.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	test, err := h.testService.CreateFromTemplate(c.Request.Context(), templateID, &req, currentUserID(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}

// GetTest returns a single test, optionally with its question associations
func (h *TestHandler) GetTest(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	var (
		test interface{}
		err  error
	)
	if c.Query("include_questions") == "true" {
		test, err = h.testService.GetByIDWithQuestions(c.Request.Context(), id)
	} else {
		test, err = h.testService.GetByID(c.Request.Context(), id)
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// GetTestByLink resolves the public link token to its test definition
func (h *TestHandler) GetTestByLink(c *gin.Context) {
	link := ParseStringIDParam(c, "link")
	if link == "" {
		return
	}

	test, err := h.testService.GetByLink(c.Request.Context(), link)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// UpdateTest applies a partial update to a test definition
func (h *TestHandler) UpdateTest(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	test, err := h.testService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// DeleteTest soft-deletes a test definition
func (h *TestHandler) DeleteTest(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting test", "test_id", id)

	if err := h.testService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Test deleted successfully"})
}

// ListTests lists test definitions with pagination and filtering
func (h *TestHandler) ListTests(c *gin.Context) {
	filters := h.parseTestFilters(c)

	tests, total, err := h.testService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: tests, Total: total})
}

// AddQuestions associates question revisions with a test
func (h *TestHandler) AddQuestions(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	var req struct {
		QuestionRevisionIDs []uint `json:"question_revision_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := h.testService.AddQuestions(c.Request.Context(), id, req.QuestionRevisionIDs); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Questions added successfully"})
}

// RemoveQuestion detaches one question revision from a test
func (h *TestHandler) RemoveQuestion(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}
	revisionID := parseUintParam(c, "revision_id")
	if revisionID == 0 {
		return
	}

	if err := h.testService.RemoveQuestion(c.Request.Context(), id, revisionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question removed successfully"})
}

// ListSessions lists candidate sessions for a test
func (h *TestHandler) ListSessions(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	filters := repositories.SessionFilters{
		SubmittedOnly: c.Query("submitted_only") == "true",
		Limit:         parseIntQuery(c, "limit", 50),
		Offset:        parseIntQuery(c, "offset", 0),
	}

	sessions, total, err := h.testService.ListSessions(c.Request.Context(), id, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: sessions, Total: total})
}

// ExportResults streams an Excel workbook of per-session scores
func (h *TestHandler) ExportResults(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting test results", "test_id", id)

	data, err := h.exportService.ExportTestResults(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=test_results.xlsx")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// ===== HELPERS =====

func (h *TestHandler) parseTestFilters(c *gin.Context) repositories.TestFilters {
	filters := repositories.TestFilters{
		Limit:     parseIntQuery(c, "limit", 50),
		Offset:    parseIntQuery(c, "offset", 0),
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	if v := c.Query("is_active"); v != "" {
		active := v == "true"
		filters.IsActive = &active
	}
	if v := c.Query("is_template"); v != "" {
		template := v == "true"
		filters.IsTemplate = &template
	}
	if v := c.Query("created_by"); v != "" {
		filters.CreatedBy = &v
	}
	if v := c.Query("date_from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.DateFrom = &t
		}
	}
	if v := c.Query("date_to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filters.DateTo = &t
		}
	}

	return filters
}
