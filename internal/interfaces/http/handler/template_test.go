package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	provisioningapp "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/domain/provisioning"
	"github.com/erp/provisioner/internal/domain/shared"
	"github.com/erp/provisioner/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupTemplateHandler() (*MockTemplateService, *TemplateHandler) {
	svc := new(MockTemplateService)
	return svc, NewTemplateHandler(svc)
}

func sampleTemplate() *provisioningapp.TemplateResponse {
	return &provisioningapp.TemplateResponse{
		ID:        uuid.New(),
		Code:      "RETAIL_BASIC",
		Name:      "Retail Basic",
		Type:      "RETAIL",
		Version:   1,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestTemplateHandler_List(t *testing.T) {
	svc, h := setupTemplateHandler()
	router := newTestRouter(h.RegisterRoutes)

	filter := provisioningapp.TemplateListFilter{Type: "RETAIL", ActiveOnly: true, Page: 1, PageSize: 20}
	svc.On("List", mock.Anything, filter).Return([]provisioningapp.TemplateResponse{*sampleTemplate()}, int64(1), nil)

	w, resp := performRequest(t, router, http.MethodGet, "/api/v1/templates?active=true&type=RETAIL", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.PageSize)
	svc.AssertExpectations(t)
}

func TestTemplateHandler_List_InvalidPageSize(t *testing.T) {
	_, h := setupTemplateHandler()
	router := newTestRouter(h.RegisterRoutes)

	w, resp := performRequest(t, router, http.MethodGet, "/api/v1/templates?page_size=500", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
}

func TestTemplateHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		req := provisioningapp.CreateTemplateRequest{Code: "RETAIL_BASIC", Name: "Retail Basic", Type: "RETAIL"}
		svc.On("Create", mock.Anything, req).Return(sampleTemplate(), nil)

		w, resp := performRequest(t, router, http.MethodPost, "/api/v1/templates", req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var got provisioningapp.TemplateResponse
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, "RETAIL_BASIC", got.Code)
	})

	t.Run("duplicate code", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		svc.On("Create", mock.Anything, mock.Anything).Return(nil, provisioning.ErrTemplateCodeTaken("RETAIL_BASIC"))

		w, resp := performRequest(t, router, http.MethodPost, "/api/v1/templates",
			map[string]any{"code": "RETAIL_BASIC", "name": "Retail Basic", "type": "RETAIL"})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)
		assert.NotEmpty(t, resp.Error.RequestID)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		w, resp := performRequest(t, router, http.MethodPost, "/api/v1/templates", map[string]any{"code": "X"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Len(t, resp.Error.Details, 2)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestTemplateHandler_Import(t *testing.T) {
	doc := `{"template":{"code":"CAFE","name":"Cafe","type":"RESTAURANT"},"items":[{"entityType":"Brand","data":{"name":"House"}}]}`

	t.Run("created with dropped items", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		result := &provisioningapp.ImportResult{
			Template: sampleTemplate(),
			Dropped:  []provisioningapp.DroppedItem{{Index: 1, EntityType: "Warehouse", Reason: "unsupported entity type"}},
		}
		svc.On("CreateFromJSON", mock.Anything, []byte(doc)).Return(result, nil)

		w, resp := performRequest(t, router, http.MethodPost, "/api/v1/templates/import", doc)

		assert.Equal(t, http.StatusCreated, w.Code)
		var got provisioningapp.ImportResult
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		require.Len(t, got.Dropped, 1)
		assert.Equal(t, "Warehouse", got.Dropped[0].EntityType)
	})

	t.Run("empty body", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		w, resp := performRequest(t, router, http.MethodPost, "/api/v1/templates/import", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
		svc.AssertNotCalled(t, "CreateFromJSON", mock.Anything, mock.Anything)
	})

	t.Run("sku rejected", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		svc.On("CreateFromJSON", mock.Anything, mock.Anything).
			Return(nil, shared.NewDomainError("INVALID_INPUT", "ProductTemplate items must use skuPrefix, not sku"))

		w, resp := performRequest(t, router, http.MethodPost, "/api/v1/templates/import", doc)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
		assert.Contains(t, resp.Error.Message, "skuPrefix")
	})
}

func TestTemplateHandler_Reimport_CodeMismatch(t *testing.T) {
	svc, h := setupTemplateHandler()
	router := newTestRouter(h.RegisterRoutes)

	id := uuid.New()
	svc.On("UpdateFromJSON", mock.Anything, id, mock.Anything).
		Return(nil, shared.NewDomainError("INVALID_INPUT", "Template code in document does not match"))

	w, resp := performRequest(t, router, http.MethodPut, "/api/v1/templates/"+id.String()+"/import",
		`{"template":{"code":"OTHER","name":"Other","type":"RETAIL"}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, resp.Error.Code)
	svc.AssertExpectations(t)
}

func TestTemplateHandler_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		tmpl := sampleTemplate()
		tmpl.Items = []provisioningapp.TemplateItemResponse{{ID: uuid.New(), EntityType: "Brand", SortOrder: 1}}
		svc.On("GetByID", mock.Anything, tmpl.ID).Return(tmpl, nil)

		w, resp := performRequest(t, router, http.MethodGet, "/api/v1/templates/"+tmpl.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var got provisioningapp.TemplateResponse
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Len(t, got.Items, 1)
	})

	t.Run("not found", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		id := uuid.New()
		svc.On("GetByID", mock.Anything, id).Return(nil, provisioning.ErrTemplateNotFound(id.String()))

		w, resp := performRequest(t, router, http.MethodGet, "/api/v1/templates/"+id.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		_, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		w, resp := performRequest(t, router, http.MethodGet, "/api/v1/templates/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	})
}

func TestTemplateHandler_GetByCode(t *testing.T) {
	svc, h := setupTemplateHandler()
	router := newTestRouter(h.RegisterRoutes)

	svc.On("GetByCode", mock.Anything, "RETAIL_BASIC").Return(sampleTemplate(), nil)

	w, _ := performRequest(t, router, http.MethodGet, "/api/v1/templates/code/RETAIL_BASIC", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTemplateHandler_Update(t *testing.T) {
	svc, h := setupTemplateHandler()
	router := newTestRouter(h.RegisterRoutes)

	id := uuid.New()
	name := "Retail Plus"
	req := provisioningapp.UpdateTemplateRequest{Name: &name}
	svc.On("Update", mock.Anything, id, req).Return(sampleTemplate(), nil)

	w, _ := performRequest(t, router, http.MethodPut, "/api/v1/templates/"+id.String(), map[string]any{"name": name})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}

func TestTemplateHandler_Delete(t *testing.T) {
	svc, h := setupTemplateHandler()
	router := newTestRouter(h.RegisterRoutes)

	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	w, _ := performRequest(t, router, http.MethodDelete, "/api/v1/templates/"+id.String(), nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	svc.AssertExpectations(t)
}

func TestTemplateHandler_Items(t *testing.T) {
	t.Run("add item", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		id := uuid.New()
		item := &provisioningapp.TemplateItemResponse{ID: uuid.New(), TemplateID: id, EntityType: "TaxRule", SortOrder: 4}
		svc.On("AddItem", mock.Anything, id, mock.MatchedBy(func(req provisioningapp.AddItemRequest) bool {
			return req.EntityType == "tax_rule" && req.SortOrder == nil
		})).Return(item, nil)

		w, resp := performRequest(t, router, http.MethodPost, "/api/v1/templates/"+id.String()+"/items",
			map[string]any{"entity_type": "tax_rule", "data": map[string]any{"name": "VAT", "rate": "0.2"}})

		assert.Equal(t, http.StatusCreated, w.Code)
		var got provisioningapp.TemplateItemResponse
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Equal(t, 4, got.SortOrder)
	})

	t.Run("unsupported entity type", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		w, resp := performRequest(t, router, http.MethodPost, "/api/v1/templates/"+uuid.NewString()+"/items",
			map[string]any{"entity_type": "Warehouse", "data": map[string]any{"name": "Main"}})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "entity_type", resp.Error.Details[0].Field)
		svc.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("list items", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		id := uuid.New()
		svc.On("ListItems", mock.Anything, id).Return([]provisioningapp.TemplateItemResponse{{EntityType: "Brand"}, {EntityType: "Category"}}, nil)

		w, resp := performRequest(t, router, http.MethodGet, "/api/v1/templates/"+id.String()+"/items", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		var got []provisioningapp.TemplateItemResponse
		require.NoError(t, json.Unmarshal(resp.Data, &got))
		assert.Len(t, got, 2)
	})

	t.Run("remove item", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		id, itemID := uuid.New(), uuid.New()
		svc.On("RemoveItem", mock.Anything, id, itemID).Return(nil)

		w, _ := performRequest(t, router, http.MethodDelete, "/api/v1/templates/"+id.String()+"/items/"+itemID.String(), nil)

		assert.Equal(t, http.StatusNoContent, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("unexpected error is hidden", func(t *testing.T) {
		svc, h := setupTemplateHandler()
		router := newTestRouter(h.RegisterRoutes)

		id := uuid.New()
		svc.On("ListItems", mock.Anything, id).Return([]provisioningapp.TemplateItemResponse(nil), errors.New("connection reset"))

		w, resp := performRequest(t, router, http.MethodGet, "/api/v1/templates/"+id.String()+"/items", nil)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeInternal, resp.Error.Code)
		assert.NotContains(t, resp.Error.Message, "connection reset")
	})
}
