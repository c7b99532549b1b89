package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of business spans
const TracerName = "github.com/erp/provisioner"

// Span attribute keys.
var (
	AttrOrganizationID = attribute.Key("organization_id")
	AttrEventType      = attribute.Key("event.type")
	AttrAggregateType  = attribute.Key("event.aggregate_type")
)

// StartSpan starts an internal span on the global tracer provider. The
// caller ends it, usually through End.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// Fail records err on span and marks it failed. A nil err is ignored.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// End marks span failed with err, or ok when err is nil, and ends it
func End(span trace.Span, err error) {
	if err != nil {
		Fail(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Counts sets integer attributes on span
func Counts(span trace.Span, counts map[string]int) {
	attrs := make([]attribute.KeyValue, 0, len(counts))
	for k, v := range counts {
		attrs = append(attrs, attribute.Int(k, v))
	}
	span.SetAttributes(attrs...)
}
