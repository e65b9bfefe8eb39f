package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"accountapp/internal/core/port"
)

// NoOpProbe is used by tests and when telemetry is disabled.
type NoOpProbe struct{}

func NewNoOpProbe() port.Telemetry {
	return &NoOpProbe{}
}

func (p *NoOpProbe) StartRepositorySpan(ctx context.Context, operation string, entity string, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

func (p *NoOpProbe) StartServiceSpan(ctx context.Context, service string, operation string, actor string, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

func (p *NoOpProbe) RecordRepositoryOperation(ctx context.Context, operation string, entity string, duration time.Duration, err error) {
}

func (p *NoOpProbe) RecordServiceOperation(ctx context.Context, service string, operation string, actor string, duration time.Duration, err error) {
}

func (p *NoOpProbe) RecordBusinessEvent(ctx context.Context, event string, entity string, entityID string, actor string, metadata map[string]any) {
}

func (p *NoOpProbe) RecordError(ctx context.Context, operation string, err error, metadata map[string]any) {
}

// Operation measures the duration of a repository call.
type Operation struct {
	probe     port.Telemetry
	ctx       context.Context
	startTime time.Time
	operation string
	entity    string
}

func StartOperation(ctx context.Context, probe port.Telemetry, operation, entity string) *Operation {
	return &Operation{
		probe:     probe,
		ctx:       ctx,
		startTime: time.Now(),
		operation: operation,
		entity:    entity,
	}
}

func (op *Operation) End(err error) {
	if op.probe != nil {
		op.probe.RecordRepositoryOperation(op.ctx, op.operation, op.entity, time.Since(op.startTime), err)
	}
}
