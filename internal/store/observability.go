package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/ayush/simple-blog/backend/internal/store"
	meterName  = "github.com/ayush/simple-blog/backend/internal/store"
)

type storeMetrics struct {
	opCount    metric.Int64Counter
	opDuration metric.Float64Histogram
	opErrors   metric.Int64Counter
}

type observability struct {
	logger        *slog.Logger
	tracer        trace.Tracer
	metrics       *storeMetrics
	slowThreshold time.Duration
}

func defaultObservability() *observability {
	return &observability{slowThreshold: 200 * time.Millisecond}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger enables slow-query and error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.obs.logger = logger }
}

// WithTracer sets the OpenTelemetry tracer for store operations.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) { s.obs.tracer = tracer }
}

// WithDefaultTracer uses the global OpenTelemetry tracer.
func WithDefaultTracer() Option {
	return func(s *Store) { s.obs.tracer = otel.Tracer(tracerName) }
}

// WithMeter sets the OpenTelemetry meter for store metrics.
func WithMeter(meter metric.Meter) Option {
	return func(s *Store) { s.obs.metrics = initMetrics(meter) }
}

// WithDefaultMeter uses the global OpenTelemetry meter.
func WithDefaultMeter() Option {
	return func(s *Store) { s.obs.metrics = initMetrics(otel.Meter(meterName)) }
}

func initMetrics(meter metric.Meter) *storeMetrics {
	opCount, _ := meter.Int64Counter("blog.store.op.count",
		metric.WithDescription("Total number of store operations executed"),
		metric.WithUnit("{operation}"),
	)
	opDuration, _ := meter.Float64Histogram("blog.store.op.duration",
		metric.WithDescription("Store operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	opErrors, _ := meter.Int64Counter("blog.store.op.errors",
		metric.WithDescription("Total number of store operation errors"),
		metric.WithUnit("{error}"),
	)
	return &storeMetrics{opCount: opCount, opDuration: opDuration, opErrors: opErrors}
}

// instrument starts a span for a store operation and returns a completion
// callback that records duration, outcome, and slow-operation logs. Not-found
// and conflict results are expected outcomes, not errors, for recording
// purposes.
func (s *Store) instrument(ctx context.Context, op string) (context.Context, func(error)) {
	start := time.Now()
	var span trace.Span
	if s.obs.tracer != nil {
		ctx, span = s.obs.tracer.Start(ctx, op,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("db.operation", op)),
		)
	}
	return ctx, func(err error) {
		elapsed := time.Since(start)
		unexpected := err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrConflict)
		if span != nil {
			if unexpected {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			}
			span.End()
		}
		if m := s.obs.metrics; m != nil {
			attrs := metric.WithAttributes(attribute.String("db.operation", op))
			m.opCount.Add(ctx, 1, attrs)
			m.opDuration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
			if unexpected {
				m.opErrors.Add(ctx, 1, attrs)
			}
		}
		if l := s.obs.logger; l != nil {
			if unexpected {
				l.ErrorContext(ctx, "store operation failed", "op", op, "err", err, "elapsed", elapsed)
			} else if elapsed >= s.obs.slowThreshold {
				l.WarnContext(ctx, "slow store operation", "op", op, "elapsed", elapsed)
			}
		}
	}
}
