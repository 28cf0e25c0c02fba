package core

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// # Security Considerations
//
// Events never carry credentials, prompt text, or model output. Only
// operational metadata is exposed (provider, model, request id, timing,
// error). Keep it that way when adding fields: access keys and session
// tokens in particular must never reach a hook.
type TelemetryHook interface {
	// OnRequestStart is called when a request to a provider begins.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called when a request to a provider completes.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	RequestID string    // Client-generated id shared by the matching end event
	Provider  string    // Provider identifier (e.g., "bedrock")
	Model     ModelID   // Model being called, empty when the provider default is used
	Streaming bool      // True for streaming calls
	Start     time.Time // When the request started
}

// RequestEndEvent contains metadata about a completed request.
// For streaming calls it is emitted when the stream finishes, not when the
// first byte arrives.
type RequestEndEvent struct {
	RequestID string    // Same id as the start event
	Provider  string    // Provider identifier
	Model     ModelID   // Model that was called
	Streaming bool      // True for streaming calls
	Start     time.Time // When the request started
	End       time.Time // When the request completed
	Err       error     // Error if request failed, nil on success
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
// Use this as a default when no telemetry is configured.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// Compile-time check that NoopTelemetryHook implements TelemetryHook.
var _ TelemetryHook = NoopTelemetryHook{}
