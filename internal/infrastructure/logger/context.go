package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey contextKey = "logger"
	// RequestIDKey is also the gin context key written by the request ID middleware
	RequestIDKey      contextKey = "request_id"
	organizationIDKey contextKey = "organization_id"
	templateCodeKey   contextKey = "template_code"
)

// WithContext attaches logger to ctx
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or a no-op logger
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID records the request ID in ctx and on the returned logger
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	logger = logger.With(zap.String("request_id", requestID))
	return WithContext(ctx, logger), logger
}

// WithApplyScope records the organization and template of a template apply.
// SQL statements issued under the returned context are logged with both.
func WithApplyScope(ctx context.Context, logger *zap.Logger, organizationID, templateCode string) (context.Context, *zap.Logger) {
	ctx = context.WithValue(ctx, organizationIDKey, organizationID)
	ctx = context.WithValue(ctx, templateCodeKey, templateCode)
	logger = logger.With(
		zap.String("organization_id", organizationID),
		zap.String("template_code", templateCode),
	)
	return WithContext(ctx, logger), logger
}

// GetRequestID returns the request ID stored in ctx
func GetRequestID(ctx context.Context) string {
	return stringValue(ctx, RequestIDKey)
}

// GetOrganizationID returns the organization being provisioned under ctx
func GetOrganizationID(ctx context.Context) string {
	return stringValue(ctx, organizationIDKey)
}

// GetTemplateCode returns the template being applied under ctx
func GetTemplateCode(ctx context.Context) string {
	return stringValue(ctx, templateCodeKey)
}

// GetTraceID returns the trace ID of the active span, or "" without one
func GetTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// ScopeFields returns the correlation fields found in ctx: request, trace,
// organization and template. Absent values are left out.
func ScopeFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if v := GetOrganizationID(ctx); v != "" {
		fields = append(fields, zap.String("organization_id", v))
	}
	if v := GetTemplateCode(ctx); v != "" {
		fields = append(fields, zap.String("template_code", v))
	}
	return fields
}

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
