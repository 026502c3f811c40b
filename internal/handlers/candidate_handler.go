package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openassess/testing-service/internal/services"
	"github.com/openassess/testing-service/internal/utils"
)

// CandidateHandler serves the anonymous test-taking surface. Every route
// except start_test authenticates with the candidate_uuid query parameter;
// errors always carry a single "detail" string.
type CandidateHandler struct {
	BaseHandler
	candidateService services.CandidateService
}

func NewCandidateHandler(candidateService services.CandidateService, logger utils.Logger) *CandidateHandler {
	return &CandidateHandler{
		BaseHandler:      NewBaseHandler(logger),
		candidateService: candidateService,
	}
}

// StartTest creates a new session and a fresh anonymous candidate identity
func (h *CandidateHandler) StartTest(c *gin.Context) {
	var req services.StartTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, DetailResponse{Detail: "Invalid request payload"})
		return
	}

	h.LogRequest(c, "Starting candidate test", "test_id", req.TestID)

	resp, err := h.candidateService.StartTest(c.Request.Context(), &req)
	if err != nil {
		h.handleCandidateError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetTestQuestions returns the session's snapshotted, answer-safe question list
func (h *CandidateHandler) GetTestQuestions(c *gin.Context) {
	sessionID, candidateUUID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	resp, err := h.candidateService.GetTestQuestions(c.Request.Context(), sessionID, candidateUUID)
	if err != nil {
		h.handleCandidateError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitAnswer upserts a single answer
func (h *CandidateHandler) SubmitAnswer(c *gin.Context) {
	sessionID, candidateUUID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var submission services.AnswerSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusUnprocessableEntity, DetailResponse{Detail: "Invalid request payload"})
		return
	}

	resp, err := h.candidateService.SubmitAnswer(c.Request.Context(), sessionID, candidateUUID, &submission)
	if err != nil {
		h.handleCandidateError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitAnswers upserts a batch of answers, one result per input in order
func (h *CandidateHandler) SubmitAnswers(c *gin.Context) {
	sessionID, candidateUUID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	var req services.BatchAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, DetailResponse{Detail: "Invalid request payload"})
		return
	}

	resp, err := h.candidateService.SubmitAnswers(c.Request.Context(), sessionID, candidateUUID, req.Answers)
	if err != nil {
		h.handleCandidateError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// SubmitTest finalizes the session
func (h *CandidateHandler) SubmitTest(c *gin.Context) {
	sessionID, candidateUUID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting candidate test", "candidate_test_id", sessionID)

	resp, err := h.candidateService.SubmitTest(c.Request.Context(), sessionID, candidateUUID)
	if err != nil {
		h.handleCandidateError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// TimeLeft returns remaining seconds, or null for an unbounded test
func (h *CandidateHandler) TimeLeft(c *gin.Context) {
	sessionID, candidateUUID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	resp, err := h.candidateService.TimeLeft(c.Request.Context(), sessionID, candidateUUID)
	if err != nil {
		h.handleCandidateError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetResult returns the scored aggregate for the session
func (h *CandidateHandler) GetResult(c *gin.Context) {
	sessionID, candidateUUID, ok := h.sessionParams(c)
	if !ok {
		return
	}

	result, err := h.candidateService.GetResult(c.Request.Context(), sessionID, candidateUUID)
	if err != nil {
		h.handleCandidateError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ===== HELPERS =====

func (h *CandidateHandler) sessionParams(c *gin.Context) (uint, string, bool) {
	sessionID := parseUintParam(c, "candidate_test_id")
	if sessionID == 0 {
		return 0, "", false
	}

	candidateUUID := c.Query("candidate_uuid")
	if candidateUUID == "" {
		c.JSON(http.StatusNotFound, DetailResponse{Detail: "Candidate test not found or invalid UUID"})
		return 0, "", false
	}

	return sessionID, candidateUUID, true
}

func (h *CandidateHandler) handleCandidateError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusUnprocessableEntity, DetailResponse{Detail: validationErrors.Error()})
		return
	}

	switch {
	case errors.Is(err, services.ErrCandidateTestNotFound):
		c.JSON(http.StatusNotFound, DetailResponse{Detail: "Candidate test not found or invalid UUID"})
	case errors.Is(err, services.ErrTestNotFound), errors.Is(err, services.ErrNoQuestionsInTest):
		c.JSON(http.StatusNotFound, DetailResponse{Detail: "Test not found or not active"})
	case errors.Is(err, services.ErrRevisionNotFound):
		c.JSON(http.StatusNotFound, DetailResponse{Detail: "Question revision not found"})
	case errors.Is(err, services.ErrTestNotStarted):
		c.JSON(http.StatusBadRequest, DetailResponse{Detail: "Test has not started yet"})
	case errors.Is(err, services.ErrTestEnded):
		c.JSON(http.StatusBadRequest, DetailResponse{Detail: "Test has already ended"})
	case errors.Is(err, services.ErrTestAlreadySubmitted):
		c.JSON(http.StatusBadRequest, DetailResponse{Detail: "Test already submitted"})
	case errors.Is(err, services.ErrAttemptLimitExceeded):
		c.JSON(http.StatusBadRequest, DetailResponse{Detail: "Maximum attempts exceeded"})
	case errors.Is(err, services.ErrResultNotVisible):
		c.JSON(http.StatusForbidden, DetailResponse{Detail: "Results are not visible for this test"})
	default:
		h.LogError(c, err, "Candidate endpoint failed")
		c.JSON(http.StatusInternalServerError, DetailResponse{Detail: "Internal server error"})
	}
}
