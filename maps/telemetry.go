package maps

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CallObserver receives the outcome of every provider call.
type CallObserver interface {
	ObserveProviderCall(ctx context.Context, provider, operation string, duration time.Duration, err error)
}

// Tracer wraps an OpenTelemetry tracer for provider calls.
type Tracer struct {
	tracer   trace.Tracer
	observer CallObserver
}

// NewTracer creates a new Tracer wrapping an OpenTelemetry tracer.
func NewTracer(tracer trace.Tracer) *Tracer {
	if tracer == nil {
		return nil
	}
	return &Tracer{tracer: tracer}
}

// WithObserver returns a copy of t that also reports calls to o.
func (t *Tracer) WithObserver(o CallObserver) *Tracer {
	if t == nil {
		return nil
	}
	return &Tracer{tracer: t.tracer, observer: o}
}

// Span wraps an OpenTelemetry span.
type Span struct {
	ctx       context.Context
	span      trace.Span
	observer  CallObserver
	provider  string
	operation string
	start     time.Time
}

// End ends the span.
func (s *Span) End() {
	if s.span != nil {
		s.span.End()
	}
}

// RecordError records an error on the span.
func (s *Span) RecordError(err error) {
	if s.span != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
}

// SetAttributes sets attributes on the span.
func (s *Span) SetAttributes(attrs ...attribute.KeyValue) {
	if s.span != nil {
		s.span.SetAttributes(attrs...)
	}
}

// Finish records err if any, reports the call to the observer and ends the span.
func (s *Span) Finish(err error) {
	if err != nil {
		s.RecordError(err)
		if code := StatusCode(err); code != 0 {
			s.SetAttributes(attribute.Int("http.response.status_code", code))
		}
	}
	if s.observer != nil {
		s.observer.ObserveProviderCall(s.ctx, s.provider, s.operation, time.Since(s.start), err)
	}
	s.End()
}

// StartSpan starts a client span for one provider operation.
func (t *Tracer) StartSpan(ctx context.Context, provider, operation string) (context.Context, *Span) {
	if t == nil || t.tracer == nil {
		return ctx, &Span{}
	}

	ctx, span := t.tracer.Start(ctx, provider+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("maps.provider", provider),
			attribute.String("maps.operation", operation),
		),
	)

	return ctx, &Span{
		ctx:       ctx,
		span:      span,
		observer:  t.observer,
		provider:  provider,
		operation: operation,
		start:     time.Now(),
	}
}

// PointAttributes returns attributes for single-coordinate operations.
func PointAttributes(lat, lng float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64("maps.location.lat", lat),
		attribute.Float64("maps.location.lng", lng),
	}
}

// RouteAttributes returns attributes for route operations.
func RouteAttributes(distanceMeters, durationSeconds float64, steps int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Float64("maps.distance.meters", distanceMeters),
		attribute.Float64("maps.duration.seconds", durationSeconds),
		attribute.Int("maps.route.steps", steps),
	}
}
