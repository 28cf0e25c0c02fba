// Package otel reports bedrockchat requests as OpenTelemetry spans.
//
//	tp := sdktrace.NewTracerProvider(...)
//	client := core.NewClient(provider, core.WithTelemetry(otel.NewHook(tp)))
package otel

import (
	"context"
	"sync"

	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petal-labs/bedrockchat/core"
)

const (
	instrumentationName = "github.com/petal-labs/bedrockchat/contrib/otel"
	spanName            = "bedrockchat.chat"
)

// Attribute keys set on every span.
const (
	AttrSystem    = attribute.Key("gen_ai.system")
	AttrModel     = attribute.Key("gen_ai.request.model")
	AttrProvider  = attribute.Key("bedrockchat.provider")
	AttrRequestID = attribute.Key("bedrockchat.request_id")
	AttrStreaming = attribute.Key("bedrockchat.streaming")
)

// Hook is a core.TelemetryHook that opens a client span when a request
// starts and ends it when the matching end event arrives. Start and end
// events are paired by RequestID. Hook is safe for concurrent use.
type Hook struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

var _ core.TelemetryHook = (*Hook)(nil)

// NewHook creates a Hook using tp, or the global tracer provider when tp
// is nil.
func NewHook(tp trace.TracerProvider) *Hook {
	if tp == nil {
		tp = otelglobal.GetTracerProvider()
	}
	return &Hook{
		tracer: tp.Tracer(instrumentationName),
		spans:  make(map[string]trace.Span),
	}
}

func attributes(requestID, provider string, model core.ModelID, streaming bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		AttrSystem.String("aws.bedrock"),
		AttrProvider.String(provider),
		AttrRequestID.String(requestID),
		AttrStreaming.Bool(streaming),
	}
	if model != "" {
		attrs = append(attrs, AttrModel.String(string(model)))
	}
	return attrs
}

// OnRequestStart opens a span for the request.
func (h *Hook) OnRequestStart(e core.RequestStartEvent) {
	_, span := h.tracer.Start(context.Background(), spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithTimestamp(e.Start),
		trace.WithAttributes(attributes(e.RequestID, e.Provider, e.Model, e.Streaming)...),
	)

	h.mu.Lock()
	h.spans[e.RequestID] = span
	h.mu.Unlock()
}

// OnRequestEnd records the outcome and ends the span. An end event with no
// matching start still produces a span covering [Start, End].
func (h *Hook) OnRequestEnd(e core.RequestEndEvent) {
	h.mu.Lock()
	span, ok := h.spans[e.RequestID]
	delete(h.spans, e.RequestID)
	h.mu.Unlock()

	if !ok {
		_, span = h.tracer.Start(context.Background(), spanName,
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithTimestamp(e.Start),
			trace.WithAttributes(attributes(e.RequestID, e.Provider, e.Model, e.Streaming)...),
		)
	}

	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(e.End))
}

// Pending returns the number of spans still open.
func (h *Hook) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.spans)
}
