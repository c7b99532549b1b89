package provisioning

import (
	"time"

	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/google/uuid"
)

// CreateTemplateRequest represents a request to create template metadata
type CreateTemplateRequest struct {
	Code        string `json:"code" binding:"required,min=1,max=50"`
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Type        string `json:"type" binding:"required,min=1,max=50"`
	Version     *int   `json:"version" binding:"omitempty,min=1"`
	IsActive    *bool  `json:"is_active"`
	Description string `json:"description" binding:"max=500"`
}

// UpdateTemplateRequest represents a request to update template metadata.
// Code is optional; when present it must equal the stored code.
type UpdateTemplateRequest struct {
	Code        string  `json:"code" binding:"max=50"`
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Type        *string `json:"type" binding:"omitempty,min=1,max=50"`
	Version     *int    `json:"version" binding:"omitempty,min=1"`
	IsActive    *bool   `json:"is_active"`
	Description *string `json:"description" binding:"omitempty,max=500"`
}

// AddItemRequest represents a request to append an item to a template
type AddItemRequest struct {
	EntityType string         `json:"entity_type" binding:"required,entity_type"`
	Data       map[string]any `json:"data" binding:"required"`
	SortOrder  *int           `json:"sort_order"`
}

// TemplateListFilter narrows template listings
type TemplateListFilter struct {
	Type       string `form:"type"`
	ActiveOnly bool   `form:"active"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// TemplateResponse represents a template in API responses
type TemplateResponse struct {
	ID          uuid.UUID              `json:"id"`
	Code        string                 `json:"code"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Version     int                    `json:"version"`
	IsActive    bool                   `json:"is_active"`
	Description string                 `json:"description"`
	Items       []TemplateItemResponse `json:"items,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// TemplateItemResponse represents a template item in API responses
type TemplateItemResponse struct {
	ID         uuid.UUID      `json:"id"`
	TemplateID uuid.UUID      `json:"template_id"`
	EntityType string         `json:"entity_type"`
	Data       map[string]any `json:"data"`
	SortOrder  int            `json:"sort_order"`
	CreatedAt  time.Time      `json:"created_at"`
}

// DroppedItem explains why an imported item was not stored
type DroppedItem struct {
	Index      int    `json:"index"`
	EntityType string `json:"entity_type"`
	Reason     string `json:"reason"`
}

// ImportResult is returned by the JSON bundle create and update operations
type ImportResult struct {
	Template *TemplateResponse `json:"template"`
	Dropped  []DroppedItem     `json:"dropped,omitempty"`
}

// ToTemplateResponse converts a template and its items to a response
func ToTemplateResponse(t *provisioning.Template) *TemplateResponse {
	resp := &TemplateResponse{
		ID:          t.ID,
		Code:        t.Code,
		Name:        t.Name,
		Type:        t.Type,
		Version:     t.Revision,
		IsActive:    t.Active,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if len(t.Items) > 0 {
		resp.Items = ToTemplateItemResponses(t.OrderedItems())
	}
	return resp
}

// ToTemplateItemResponse converts an item to a response
func ToTemplateItemResponse(item *provisioning.TemplateItem) TemplateItemResponse {
	return TemplateItemResponse{
		ID:         item.ID,
		TemplateID: item.TemplateID,
		EntityType: item.EntityType.String(),
		Data:       item.Data,
		SortOrder:  item.SortOrder,
		CreatedAt:  item.CreatedAt,
	}
}

// ToTemplateItemResponses converts items to responses
func ToTemplateItemResponses(items []provisioning.TemplateItem) []TemplateItemResponse {
	out := make([]TemplateItemResponse, len(items))
	for i := range items {
		out[i] = ToTemplateItemResponse(&items[i])
	}
	return out
}
