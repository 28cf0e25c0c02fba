package core

import (
	"errors"
	"fmt"
)

// ProviderError represents an error returned by a provider with full context.
// Status and RequestID are copied verbatim from the upstream response so
// operators can correlate failures with provider-side logs.
type ProviderError struct {
	Provider  string
	Status    int
	RequestID string
	Code      string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s: %s (status=%d, code=%s, request_id=%s)",
			e.Provider, e.Message, e.Status, e.Code, e.RequestID)
	}
	return fmt.Sprintf("%s: %s (status=%d, code=%s)",
		e.Provider, e.Message, e.Status, e.Code)
}

// Unwrap returns the underlying error for error chaining.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// ErrUpstream is the parent of every transport or provider-reported failure.
// Use errors.Is(err, ErrUpstream) to distinguish provider failures from
// credential and validation failures.
var ErrUpstream = errors.New("upstream error")

// Sentinel errors for classification of upstream failures.
var (
	ErrUnauthorized = fmt.Errorf("%w: unauthorized", ErrUpstream)
	ErrRateLimited  = fmt.Errorf("%w: rate limited", ErrUpstream)
	ErrBadRequest   = fmt.Errorf("%w: bad request", ErrUpstream)
	ErrNotFound     = fmt.Errorf("%w: not found", ErrUpstream)
	ErrServer       = fmt.Errorf("%w: server error", ErrUpstream)
	ErrNetwork      = fmt.Errorf("%w: network error", ErrUpstream)
)

// Credential lifecycle errors.
var (
	// ErrBrokerUnavailable means the identity broker could not be reached.
	// Callers may retry.
	ErrBrokerUnavailable = errors.New("identity broker unavailable")

	// ErrDelegationDenied means the broker refused the credential exchange.
	// This is a configuration problem and is never retried automatically.
	ErrDelegationDenied = errors.New("credential delegation denied")

	// ErrInitializationFailed covers every other first-time setup failure.
	ErrInitializationFailed = errors.New("credential initialization failed")
)

// Invocation and decoding errors.
var (
	ErrDecode                  = errors.New("decode error")
	ErrEmptyConversation       = errors.New("empty conversation: normalized request has no messages")
	ErrUnexpectedResponseShape = errors.New("unexpected response shape: reply has no text content")
	ErrStreamTransport         = errors.New("stream transport error")

	// ErrNilStream is a caller error: a nil *ChatStream was passed in.
	ErrNilStream = errors.New("nil chat stream")
)

// ErrModelRequired is returned when neither the request nor the provider
// configuration names a model.
var ErrModelRequired = errors.New("model required: set bedrock.model_id in config or pass a model to Client.Chat()")
