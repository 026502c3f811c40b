package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openassess/testing-service/internal/services"
	"github.com/openassess/testing-service/internal/utils"
)

// OrganizationHandler manages organizations and their tag vocabularies
type OrganizationHandler struct {
	BaseHandler
	organizationService services.OrganizationService
}

func NewOrganizationHandler(organizationService services.OrganizationService, logger utils.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		BaseHandler:         NewBaseHandler(logger),
		organizationService: organizationService,
	}
}

func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req services.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Creating organization", "name", req.Name)

	org, err := h.organizationService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	org, err := h.organizationService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)

	orgs, total, err := h.organizationService.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Items: orgs, Total: total})
}

func (h *OrganizationHandler) CreateTag(c *gin.Context) {
	var req services.CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	tag, err := h.organizationService.CreateTag(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tag)
}

func (h *OrganizationHandler) ListTags(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	tags, err := h.organizationService.ListTags(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tags)
}
