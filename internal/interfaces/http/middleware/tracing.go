// Package middleware provides HTTP middleware for the provisioning API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/erp/provisioner/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing returns the otelgin middleware, or a pass-through when tracing is
// disabled. Server spans are named after the route pattern.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return otelgin.Middleware(serviceName)
}

// SpanEnricher annotates the server span created by Tracing. It must run
// after Tracing so that the span is in the request context.
func SpanEnricher() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if c.FullPath() != "" {
			if id := c.Param("id"); id != "" {
				span.SetAttributes(pathParamAttribute(c.FullPath()).String(id))
			}
			if code := c.Param("code"); code != "" {
				span.SetAttributes(telemetry.AttrTemplateCode.String(code))
			}
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

// pathParamAttribute names the :id parameter after the resource it identifies.
func pathParamAttribute(route string) attribute.Key {
	if strings.HasPrefix(route, organizationsPrefix) {
		return telemetry.AttrOrganizationID
	}
	return "template.id"
}

const organizationsPrefix = "/api/v1/organizations"
