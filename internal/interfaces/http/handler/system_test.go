package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/erp/provisioner/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		pinger     Pinger
		wantStatus int
		wantDB     string
	}{
		{name: "healthy", pinger: stubPinger{}, wantStatus: http.StatusOK, wantDB: "ok"},
		{name: "database down", pinger: stubPinger{err: errors.New("connection refused")}, wantStatus: http.StatusServiceUnavailable, wantDB: "connection refused"},
		{name: "no database", pinger: nil, wantStatus: http.StatusOK, wantDB: "not configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler(tt.pinger, "test")
			router := newTestRouter(func(rg *gin.RouterGroup) { rg.GET("/health", h.Health) })

			w, resp := performRequest(t, router, http.MethodGet, "/api/v1/health", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			var health dto.HealthResponse
			require.NoError(t, json.Unmarshal(resp.Data, &health))
			assert.Equal(t, tt.wantDB, health.Database)
			assert.Equal(t, "test", health.Version)
		})
	}
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler(stubPinger{}, "1.2.3")
	router := newTestRouter(func(rg *gin.RouterGroup) { rg.GET("/system/info", h.GetSystemInfo) })

	w, resp := performRequest(t, router, http.MethodGet, "/api/v1/system/info", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var info SystemInfoResponse
	require.NoError(t, json.Unmarshal(resp.Data, &info))
	assert.Equal(t, "1.2.3", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
