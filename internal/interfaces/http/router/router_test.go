package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testRoutes = RouteFunc(func(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	rg.POST("/echo", func(c *gin.Context) {
		body, err := c.GetRawData()
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(body))
	})
	rg.GET("/panic", func(c *gin.Context) { panic("boom") })
})

func serve(engine *gin.Engine, method, path string, body io.Reader, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNew_MountsUnderPrefix(t *testing.T) {
	tests := []struct {
		prefix, hit, miss string
	}{
		{"", "/api/v1/ping", "/ping"},
		{"/api/v2", "/api/v2/ping", "/api/v1/ping"},
	}
	for _, tt := range tests {
		t.Run(tt.hit, func(t *testing.T) {
			engine, err := New(Config{APIPrefix: tt.prefix}, zap.NewNop(), testRoutes)
			require.NoError(t, err)

			ok := serve(engine, http.MethodGet, tt.hit, nil)
			assert.Equal(t, http.StatusOK, ok.Code)
			assert.Equal(t, "pong", ok.Body.String())
			assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, tt.miss, nil).Code)
		})
	}
}

func TestNew_MiddlewareChain(t *testing.T) {
	engine, err := New(Config{
		ServiceName:    "provisioner-test",
		MaxBodySize:    16,
		RequestTimeout: time.Second,
		CORSOrigins:    []string{"http://localhost:3000"},
	}, zap.NewNop(), testRoutes)
	require.NoError(t, err)

	w := serve(engine, http.MethodGet, "/api/v1/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = serve(engine, http.MethodOptions, "/api/v1/ping", nil, "Origin", "http://localhost:3000")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(engine, http.MethodPost, "/api/v1/echo", strings.NewReader(strings.Repeat("x", 64)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = serve(engine, http.MethodGet, "/api/v1/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
}

func TestNew_InvalidTrustedProxy(t *testing.T) {
	_, err := New(Config{TrustedProxies: []string{"not-an-ip"}}, zap.NewNop())
	assert.Error(t, err)
}
