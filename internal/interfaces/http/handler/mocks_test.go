package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	orgapp "github.com/erp/provisioner/internal/application/organization"
	provisioningapp "github.com/erp/provisioner/internal/application/provisioning"
	"github.com/erp/provisioner/internal/interfaces/http/dto"
	"github.com/erp/provisioner/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// MockTemplateService implements TemplateService for testing
type MockTemplateService struct {
	mock.Mock
}

func (m *MockTemplateService) Create(ctx context.Context, req provisioningapp.CreateTemplateRequest) (*provisioningapp.TemplateResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioningapp.TemplateResponse), args.Error(1)
}

func (m *MockTemplateService) GetByID(ctx context.Context, id uuid.UUID) (*provisioningapp.TemplateResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioningapp.TemplateResponse), args.Error(1)
}

func (m *MockTemplateService) GetByCode(ctx context.Context, code string) (*provisioningapp.TemplateResponse, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioningapp.TemplateResponse), args.Error(1)
}

func (m *MockTemplateService) List(ctx context.Context, filter provisioningapp.TemplateListFilter) ([]provisioningapp.TemplateResponse, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]provisioningapp.TemplateResponse), args.Get(1).(int64), args.Error(2)
}

func (m *MockTemplateService) Update(ctx context.Context, id uuid.UUID, req provisioningapp.UpdateTemplateRequest) (*provisioningapp.TemplateResponse, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioningapp.TemplateResponse), args.Error(1)
}

func (m *MockTemplateService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTemplateService) AddItem(ctx context.Context, templateID uuid.UUID, req provisioningapp.AddItemRequest) (*provisioningapp.TemplateItemResponse, error) {
	args := m.Called(ctx, templateID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioningapp.TemplateItemResponse), args.Error(1)
}

func (m *MockTemplateService) ListItems(ctx context.Context, templateID uuid.UUID) ([]provisioningapp.TemplateItemResponse, error) {
	args := m.Called(ctx, templateID)
	return args.Get(0).([]provisioningapp.TemplateItemResponse), args.Error(1)
}

func (m *MockTemplateService) RemoveItem(ctx context.Context, templateID, itemID uuid.UUID) error {
	return m.Called(ctx, templateID, itemID).Error(0)
}

func (m *MockTemplateService) CreateFromJSON(ctx context.Context, body []byte) (*provisioningapp.ImportResult, error) {
	args := m.Called(ctx, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioningapp.ImportResult), args.Error(1)
}

func (m *MockTemplateService) UpdateFromJSON(ctx context.Context, id uuid.UUID, body []byte) (*provisioningapp.ImportResult, error) {
	args := m.Called(ctx, id, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioningapp.ImportResult), args.Error(1)
}

// MockOrganizationService implements OrganizationService for testing
type MockOrganizationService struct {
	mock.Mock
}

func (m *MockOrganizationService) Create(ctx context.Context, req orgapp.CreateOrganizationRequest) (*orgapp.CreateOrganizationResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orgapp.CreateOrganizationResponse), args.Error(1)
}

func (m *MockOrganizationService) GetByID(ctx context.Context, id uuid.UUID) (*orgapp.OrganizationResponse, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orgapp.OrganizationResponse), args.Error(1)
}

func (m *MockOrganizationService) ApplyTemplate(ctx context.Context, orgID uuid.UUID, templateCode string) (*provisioningapp.ProvisioningResult, error) {
	args := m.Called(ctx, orgID, templateCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provisioningapp.ProvisioningResult), args.Error(1)
}

func (m *MockOrganizationService) ListRuns(ctx context.Context, orgID uuid.UUID, filter orgapp.RunListFilter) ([]orgapp.ProvisioningRunResponse, int64, error) {
	args := m.Called(ctx, orgID, filter)
	return args.Get(0).([]orgapp.ProvisioningRunResponse), args.Get(1).(int64), args.Error(2)
}

// testResponse mirrors dto.Response with a raw data field for decoding
type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func performRequest(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, testResponse) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp testResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w, resp
}

func newTestRouter(register func(rg *gin.RouterGroup)) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	register(router.Group("/api/v1"))
	return router
}
