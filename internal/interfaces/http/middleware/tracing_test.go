package middleware

import (
	"context"
	"net/http"
	"testing"

	"github.com/erp/provisioner/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracing(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func TestTracing_EnrichesServerSpan(t *testing.T) {
	recorder := setupTracing(t)

	router := gin.New()
	router.Use(RequestID(), Tracing("provisioner", true), SpanEnricher())
	router.POST("/api/v1/organizations/:id/apply-template", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/api/v1/templates/code/:code", func(c *gin.Context) {
		c.Status(http.StatusInternalServerError)
	})

	serve(router, http.MethodPost, "/api/v1/organizations/org-1/apply-template", "", map[string]string{RequestIDHeader: "req-1"})
	serve(router, http.MethodGet, "/api/v1/templates/code/RETAIL_BASIC", "", nil)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "req-1", attrs["request_id"])
	assert.Equal(t, "org-1", attrs[string(telemetry.AttrOrganizationID)])

	found := false
	for _, kv := range spans[1].Attributes() {
		if kv.Key == telemetry.AttrTemplateCode {
			found = true
			assert.Equal(t, "RETAIL_BASIC", kv.Value.AsString())
		}
	}
	assert.True(t, found)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}

func TestTracing_Disabled(t *testing.T) {
	recorder := setupTracing(t)

	router := gin.New()
	router.Use(Tracing("provisioner", false), SpanEnricher())
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "", nil).Code)
	assert.Empty(t, recorder.Ended())
}
