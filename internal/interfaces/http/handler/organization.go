package handler

import (
	"context"
	"errors"
	"net/http"

	orgapp "github.com/erp/provisioner/internal/application/organization"
	provisioningapp "github.com/erp/provisioner/internal/application/provisioning"
	domainprov "github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/infrastructure/logger"
	"github.com/erp/provisioner/internal/interfaces/http/dto"
	"github.com/erp/provisioner/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrganizationService is the organization API used by OrganizationHandler
type OrganizationService interface {
	Create(ctx context.Context, req orgapp.CreateOrganizationRequest) (*orgapp.CreateOrganizationResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*orgapp.OrganizationResponse, error)
	ApplyTemplate(ctx context.Context, orgID uuid.UUID, templateCode string) (*provisioningapp.ProvisioningResult, error)
	ListRuns(ctx context.Context, orgID uuid.UUID, filter orgapp.RunListFilter) ([]orgapp.ProvisioningRunResponse, int64, error)
}

var _ OrganizationService = (*orgapp.OrganizationService)(nil)

// OrganizationHandler handles organization and template apply endpoints
type OrganizationHandler struct {
	orgService OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(orgService OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

// RegisterRoutes mounts the organization routes on rg
func (h *OrganizationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orgs := rg.Group("/organizations")
	orgs.POST("", h.Create)
	orgs.GET("/:id", h.GetByID)
	orgs.POST("/:id/apply-template", h.ApplyTemplate)
	orgs.GET("/:id/provisioning-runs", h.ListRuns)
}

// Create creates an organization. A template_code other than blank or CUSTOM
// is applied right away; a failed apply is reported in the body and does not
// undo the creation.
// POST /organizations
func (h *OrganizationHandler) Create(c *gin.Context) {
	var req orgapp.CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	resp, err := h.orgService.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusCreated, resp)
}

// GetByID returns an organization
// GET /organizations/:id
func (h *OrganizationHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	org, err := h.orgService.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusOK, org)
}

// ApplyTemplate applies a template to the organization. Partial success is a
// 200 with a non-zero error_count; a run that created nothing and failed is a
// 422 that still carries the counts.
// POST /organizations/:id/apply-template
func (h *OrganizationHandler) ApplyTemplate(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req orgapp.ApplyTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	ctx, _ := logger.WithApplyScope(c.Request.Context(), logger.FromContext(c.Request.Context()), id.String(), req.TemplateCode)
	result, err := h.orgService.ApplyTemplate(ctx, id, req.TemplateCode)
	if err != nil {
		var failed *domainprov.ProvisioningFailedError
		if errors.As(err, &failed) && result != nil {
			resp := dto.NewErrorResponseWithRequestID(domainprov.CodeProvisioningFailed, failed.Error(), middleware.GetRequestID(c))
			resp.Data = result
			c.JSON(http.StatusUnprocessableEntity, resp)
			return
		}
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusOK, result)
}

// ListRuns returns the apply history of an organization, newest first
// GET /organizations/:id/provisioning-runs
func (h *OrganizationHandler) ListRuns(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var filter orgapp.RunListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	paging := dto.ListRequest{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	filter.Page, filter.PageSize = paging.Page, paging.PageSize

	runs, total, err := h.orgService.ListRuns(c.Request.Context(), id, filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	replyPage(c, runs, total, paging)
}
