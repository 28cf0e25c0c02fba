package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Provider is the interface that model providers must implement.
// Providers SHOULD be safe for concurrent calls.
// If a provider cannot be concurrent-safe, it MUST document this.
type Provider interface {
	// ID returns the provider identifier (e.g., "bedrock").
	ID() string

	// Models returns the list of models known to this provider.
	Models() []ModelInfo

	// Supports reports whether the provider supports the given feature.
	Supports(feature Feature) bool

	// Chat sends a non-streaming chat request.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// StreamChat sends a streaming chat request.
	StreamChat(ctx context.Context, req *ChatRequest) (*ChatStream, error)
}

// Client is the main entry point for talking to a model provider.
// Client is safe for concurrent use. It holds no credentials itself; those
// belong to the provider it wraps.
type Client struct {
	provider  Provider
	telemetry TelemetryHook
	retry     RetryPolicy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new Client with the given provider and options.
// By default failures are returned without retrying.
func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{
		provider:  p,
		telemetry: NoopTelemetryHook{},
		retry:     NoRetryPolicy{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithTelemetry sets the telemetry hook for the client.
func WithTelemetry(h TelemetryHook) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.telemetry = h
		}
	}
}

// WithRetryPolicy sets the retry policy for the client.
func WithRetryPolicy(r RetryPolicy) ClientOption {
	return func(c *Client) {
		if r != nil {
			c.retry = r
		}
	}
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

// GenerateResponse sends the turns as one blocking call and returns the
// reply text. The provider's default model is used.
func (c *Client) GenerateResponse(ctx context.Context, turns []Message) (string, error) {
	resp, err := c.Chat("").Messages(turns...).GetResponse(ctx)
	if err != nil {
		return "", err
	}
	return resp.Output, nil
}

// GenerateStreamingResponse sends the turns as a streaming call and passes
// each text delta to onDelta as it arrives. It returns once the stream has
// completed or failed; deltas delivered before a failure are not retracted.
func (c *Client) GenerateStreamingResponse(ctx context.Context, turns []Message, onDelta func(string)) error {
	stream, err := c.Chat("").Messages(turns...).Stream(ctx)
	if err != nil {
		return err
	}
	return ForEachDelta(ctx, stream, onDelta)
}

// Chat returns a ChatBuilder for constructing and executing a chat request.
// Pass an empty model to use the provider default.
func (c *Client) Chat(model ModelID) *ChatBuilder {
	return &ChatBuilder{
		client: c,
		req: ChatRequest{
			Model: model,
		},
	}
}

// ChatBuilder provides a fluent API for building chat requests.
// ChatBuilder is NOT thread-safe and should not be shared across goroutines.
type ChatBuilder struct {
	client *Client
	req    ChatRequest
}

// System appends a system message. When several are present the provider
// keeps only the last one.
func (b *ChatBuilder) System(s string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, Message{Role: RoleSystem, Content: s})
	return b
}

// User appends a user message.
func (b *ChatBuilder) User(s string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, Message{Role: RoleUser, Content: s})
	return b
}

// Assistant appends an assistant message.
func (b *ChatBuilder) Assistant(s string) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, Message{Role: RoleAssistant, Content: s})
	return b
}

// Messages appends existing conversation turns in order.
func (b *ChatBuilder) Messages(msgs ...Message) *ChatBuilder {
	b.req.Messages = append(b.req.Messages, msgs...)
	return b
}

// Temperature sets the temperature parameter.
func (b *ChatBuilder) Temperature(v float32) *ChatBuilder {
	b.req.Temperature = &v
	return b
}

// MaxTokens sets the maximum tokens parameter.
func (b *ChatBuilder) MaxTokens(n int) *ChatBuilder {
	b.req.MaxTokens = &n
	return b
}

// Clone returns an independent copy of the builder.
func (b *ChatBuilder) Clone() *ChatBuilder {
	clone := &ChatBuilder{client: b.client, req: b.req}
	clone.req.Messages = append([]Message(nil), b.req.Messages...)
	return clone
}

// GetResponse executes the chat request and returns the response.
// It applies telemetry and the client's retry policy.
func (b *ChatBuilder) GetResponse(ctx context.Context) (*ChatResponse, error) {
	start := time.Now()
	requestID := uuid.NewString()
	providerID := b.client.provider.ID()

	b.client.telemetry.OnRequestStart(RequestStartEvent{
		RequestID: requestID,
		Provider:  providerID,
		Model:     b.req.Model,
		Start:     start,
	})

	var resp *ChatResponse
	var err error

retryLoop:
	for attempt := 0; ; attempt++ {
		resp, err = b.client.provider.Chat(ctx, &b.req)
		if err == nil {
			break
		}

		delay, shouldRetry := b.client.retry.NextDelay(attempt, err)
		if !shouldRetry {
			break
		}

		select {
		case <-ctx.Done():
			err = ctx.Err()
			break retryLoop
		case <-time.After(delay):
		}
	}

	b.client.telemetry.OnRequestEnd(RequestEndEvent{
		RequestID: requestID,
		Provider:  providerID,
		Model:     b.req.Model,
		Start:     start,
		End:       time.Now(),
		Err:       err,
	})

	return resp, err
}

// Stream executes the chat request and returns a streaming response.
// Only the initial call is subject to the retry policy; a stream that fails
// midway is never restarted.
func (b *ChatBuilder) Stream(ctx context.Context) (*ChatStream, error) {
	start := time.Now()
	requestID := uuid.NewString()
	providerID := b.client.provider.ID()

	b.client.telemetry.OnRequestStart(RequestStartEvent{
		RequestID: requestID,
		Provider:  providerID,
		Model:     b.req.Model,
		Streaming: true,
		Start:     start,
	})

	var stream *ChatStream
	var err error
	for attempt := 0; ; attempt++ {
		stream, err = b.client.provider.StreamChat(ctx, &b.req)
		if err == nil {
			break
		}
		delay, shouldRetry := b.client.retry.NextDelay(attempt, err)
		if !shouldRetry {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-time.After(delay):
			continue
		}
		break
	}
	if err != nil {
		b.client.telemetry.OnRequestEnd(RequestEndEvent{
			RequestID: requestID,
			Provider:  providerID,
			Model:     b.req.Model,
			Streaming: true,
			Start:     start,
			End:       time.Now(),
			Err:       err,
		})
		return nil, err
	}

	return wrapStreamWithTelemetry(stream, b.client.telemetry, RequestStartEvent{
		RequestID: requestID,
		Provider:  providerID,
		Model:     b.req.Model,
		Streaming: true,
		Start:     start,
	}), nil
}

// wrapStreamWithTelemetry wraps a ChatStream to emit telemetry on completion.
// Ch is passed through untouched; Err and Final are forwarded once the
// provider has finished with both.
func wrapStreamWithTelemetry(stream *ChatStream, hook TelemetryHook, started RequestStartEvent) *ChatStream {
	finalCh := make(chan *ChatResponse, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(finalCh)
		defer close(errCh)

		var finalResp *ChatResponse
		var finalErr error

		finalIn, errIn := stream.Final, stream.Err
		for finalIn != nil || errIn != nil {
			select {
			case resp, ok := <-finalIn:
				if !ok {
					finalIn = nil
					continue
				}
				finalResp = resp
			case err, ok := <-errIn:
				if !ok {
					errIn = nil
					continue
				}
				finalErr = err
			}
		}

		// The end event precedes forwarding so a caller that has seen the
		// outcome can rely on telemetry having been recorded.
		hook.OnRequestEnd(RequestEndEvent{
			RequestID: started.RequestID,
			Provider:  started.Provider,
			Model:     started.Model,
			Streaming: true,
			Start:     started.Start,
			End:       time.Now(),
			Err:       finalErr,
		})

		if finalErr != nil {
			errCh <- finalErr
		} else if finalResp != nil {
			finalCh <- finalResp
		}
	}()

	return &ChatStream{
		Ch:    stream.Ch,
		Err:   errCh,
		Final: finalCh,
	}
}
