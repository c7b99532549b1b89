package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
var (
	AttrTemplateCode = attribute.Key("template_code")
	AttrApplyOutcome = attribute.Key("apply_outcome")
	AttrItemOutcome  = attribute.Key("item_outcome")

	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")

	AttrDBOperation = attribute.Key("db.operation")
	AttrDBTable     = attribute.Key("db.table")
	AttrDBState     = attribute.Key("db.pool.state")
)

// Bucket boundaries in seconds.
var (
	HTTPDurationBuckets  = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DBDurationBuckets    = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	ApplyDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
)

// Instruments creates instruments on one meter and collects creation
// errors, so a group can be built first and checked once with Err.
type Instruments struct {
	meter metric.Meter
	errs  []error
}

// NewInstruments starts a group on meter
func NewInstruments(meter metric.Meter) *Instruments {
	return &Instruments{meter: meter}
}

// Err returns every creation error seen so far
func (in *Instruments) Err() error {
	return errors.Join(in.errs...)
}

func (in *Instruments) fail(name string, err error) {
	in.errs = append(in.errs, fmt.Errorf("create instrument %s: %w", name, err))
}

// Counter creates a monotonic int64 counter
func (in *Instruments) Counter(name, description, unit string) Counter {
	c, err := in.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		in.fail(name, err)
	}
	return Counter{c}
}

// Seconds creates a float64 histogram in seconds with the given buckets
func (in *Instruments) Seconds(name, description string, buckets []float64) Histogram {
	return in.Histogram(name, description, "s", buckets)
}

// Histogram creates a float64 histogram. Empty buckets keep the SDK default.
func (in *Instruments) Histogram(name, description, unit string, buckets []float64) Histogram {
	opts := []metric.Float64HistogramOption{metric.WithDescription(description), metric.WithUnit(unit)}
	if len(buckets) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(buckets...))
	}
	h, err := in.meter.Float64Histogram(name, opts...)
	if err != nil {
		in.fail(name, err)
	}
	return Histogram{h}
}

// Gauge creates an int64 up/down counter
func (in *Instruments) Gauge(name, description, unit string) metric.Int64UpDownCounter {
	g, err := in.meter.Int64UpDownCounter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		in.fail(name, err)
	}
	return g
}

// Counter is an int64 counter taking attributes variadically
type Counter struct {
	c metric.Int64Counter
}

// Add adds n. Non-positive values are dropped.
func (c Counter) Add(ctx context.Context, n int64, attrs ...attribute.KeyValue) {
	if n > 0 {
		c.c.Add(ctx, n, metric.WithAttributes(attrs...))
	}
}

// Inc adds one
func (c Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram is a float64 histogram taking attributes variadically
type Histogram struct {
	h metric.Float64Histogram
}

// Record records v
func (h Histogram) Record(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	h.h.Record(ctx, v, metric.WithAttributes(attrs...))
}

// Since records the seconds elapsed since start
func (h Histogram) Since(ctx context.Context, start time.Time, attrs ...attribute.KeyValue) {
	h.Record(ctx, time.Since(start).Seconds(), attrs...)
}

// Duration records d in seconds
func (h Histogram) Duration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.Record(ctx, d.Seconds(), attrs...)
}
