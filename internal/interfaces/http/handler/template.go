package handler

import (
	"context"
	"errors"
	"net/http"

	provisioningapp "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/interfaces/http/dto"
	"github.com/erp/provisioner/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TemplateService is the template management API used by TemplateHandler
type TemplateService interface {
	Create(ctx context.Context, req provisioningapp.CreateTemplateRequest) (*provisioningapp.TemplateResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*provisioningapp.TemplateResponse, error)
	GetByCode(ctx context.Context, code string) (*provisioningapp.TemplateResponse, error)
	List(ctx context.Context, filter provisioningapp.TemplateListFilter) ([]provisioningapp.TemplateResponse, int64, error)
	Update(ctx context.Context, id uuid.UUID, req provisioningapp.UpdateTemplateRequest) (*provisioningapp.TemplateResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddItem(ctx context.Context, templateID uuid.UUID, req provisioningapp.AddItemRequest) (*provisioningapp.TemplateItemResponse, error)
	ListItems(ctx context.Context, templateID uuid.UUID) ([]provisioningapp.TemplateItemResponse, error)
	RemoveItem(ctx context.Context, templateID, itemID uuid.UUID) error
	CreateFromJSON(ctx context.Context, body []byte) (*provisioningapp.ImportResult, error)
	UpdateFromJSON(ctx context.Context, id uuid.UUID, body []byte) (*provisioningapp.ImportResult, error)
}

var _ TemplateService = (*provisioningapp.TemplateService)(nil)

// TemplateHandler handles template and template item endpoints
type TemplateHandler struct {
	templateService TemplateService
}

// NewTemplateHandler creates a new TemplateHandler
func NewTemplateHandler(templateService TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// RegisterRoutes mounts the template routes on rg
func (h *TemplateHandler) RegisterRoutes(rg *gin.RouterGroup) {
	templates := rg.Group("/templates")
	templates.GET("", h.List)
	templates.POST("", h.Create)
	templates.POST("/import", h.Import)
	templates.GET("/code/:code", h.GetByCode)
	templates.GET("/:id", h.GetByID)
	templates.PUT("/:id", h.Update)
	templates.PUT("/:id/import", h.Reimport)
	templates.DELETE("/:id", h.Delete)
	templates.GET("/:id/items", h.ListItems)
	templates.POST("/:id/items", h.AddItem)
	templates.DELETE("/:id/items/:itemId", h.RemoveItem)
}

// List returns templates, optionally only active ones or of one type
// GET /templates?active=true&type=RETAIL&page=1&page_size=20
func (h *TemplateHandler) List(c *gin.Context) {
	var filter provisioningapp.TemplateListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	paging := dto.ListRequest{Page: filter.Page, PageSize: filter.PageSize}.Normalize()
	filter.Page, filter.PageSize = paging.Page, paging.PageSize

	templates, total, err := h.templateService.List(c.Request.Context(), filter)
	if err != nil {
		abortWithError(c, err)
		return
	}
	replyPage(c, templates, total, paging)
}

// Create stores template metadata without items
// POST /templates
func (h *TemplateHandler) Create(c *gin.Context) {
	var req provisioningapp.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	template, err := h.templateService.Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusCreated, template)
}

// Import creates a template from a bundle document
// POST /templates/import
func (h *TemplateHandler) Import(c *gin.Context) {
	body, ok := h.readBundle(c)
	if !ok {
		return
	}

	result, err := h.templateService.CreateFromJSON(c.Request.Context(), body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusCreated, result)
}

// GetByID returns a template with its items
// GET /templates/:id
func (h *TemplateHandler) GetByID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	template, err := h.templateService.GetByID(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusOK, template)
}

// GetByCode returns a template with its items
// GET /templates/code/:code
func (h *TemplateHandler) GetByCode(c *gin.Context) {
	template, err := h.templateService.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusOK, template)
}

// Update changes template metadata. The code cannot change.
// PUT /templates/:id
func (h *TemplateHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req provisioningapp.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	template, err := h.templateService.Update(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusOK, template)
}

// Reimport replaces metadata and all items from a bundle document whose
// code matches the stored template
// PUT /templates/:id/import
func (h *TemplateHandler) Reimport(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	body, ok := h.readBundle(c)
	if !ok {
		return
	}

	result, err := h.templateService.UpdateFromJSON(c.Request.Context(), id, body)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusOK, result)
}

// Delete soft-deletes a template
// DELETE /templates/:id
func (h *TemplateHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.templateService.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListItems returns the items of a template in apply order
// GET /templates/:id/items
func (h *TemplateHandler) ListItems(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	items, err := h.templateService.ListItems(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusOK, items)
}

// AddItem appends an item to a template
// POST /templates/:id/items
func (h *TemplateHandler) AddItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req provisioningapp.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	item, err := h.templateService.AddItem(c.Request.Context(), id, req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	reply(c, http.StatusCreated, item)
}

// RemoveItem soft-deletes one item of a template
// DELETE /templates/:id/items/:itemId
func (h *TemplateHandler) RemoveItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemId")
	if !ok {
		return
	}
	if err := h.templateService.RemoveItem(c.Request.Context(), id, itemID); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TemplateHandler) readBundle(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWith(c, dto.ErrCodePayloadTooLarge, "Bundle document exceeds maximum allowed size")
			return nil, false
		}
		abortWith(c, dto.ErrCodeBadRequest, "Failed to read request body")
		return nil, false
	}
	if len(body) == 0 {
		abortWith(c, dto.ErrCodeBadRequest, "Bundle document is required")
		return nil, false
	}
	return body, true
}
