package middleware

import (
	"time"

	"github.com/erp/provisioner/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var requestSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}

// HTTPMetrics records request count, latency and body size per route
// pattern. A nil meter disables the middleware.
func HTTPMetrics(meter metric.Meter) (gin.HandlerFunc, error) {
	if meter == nil {
		return func(c *gin.Context) { c.Next() }, nil
	}

	in := telemetry.NewInstruments(meter)
	total := in.Counter("http_server_request_total", "Total number of HTTP requests", "{request}")
	latency := in.Seconds("http_server_request_duration_seconds", "HTTP request latency distribution in seconds", telemetry.HTTPDurationBuckets)
	size := in.Histogram("http_server_request_size_bytes", "HTTP request body size distribution in bytes", "By", requestSizeBuckets)
	active := in.Gauge("http_server_active_requests", "Number of currently active HTTP requests", "{request}")
	if err := in.Err(); err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		active.Add(ctx, 1)
		defer active.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		attrs := []attribute.KeyValue{
			telemetry.AttrHTTPMethod.String(c.Request.Method),
			telemetry.AttrHTTPRoute.String(route),
		}
		latency.Since(ctx, start, attrs...)
		if n := c.Request.ContentLength; n > 0 {
			size.Record(ctx, float64(n), attrs...)
		}
		total.Inc(ctx, append(attrs, telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))...)
	}, nil
}
