package core

import (
	"context"
	"strings"
)

// ChatStream represents a streaming response from a provider.
//
// Channel Rules:
//   - Providers MUST close Ch, Err, and Final when finished
//   - Providers MUST send on Err or Final before closing Ch
//   - On context cancellation, providers MUST terminate promptly and close channels
//   - Err channel emits at most one error
//   - Final channel emits exactly once on success (or zero times on failure)
type ChatStream struct {
	// Ch emits text deltas in order. Closed when stream ends.
	Ch <-chan ChatChunk

	// Err emits at most one error. Closed when stream ends.
	// Deltas already delivered on Ch before an error remain valid.
	Err <-chan error

	// Final is sent once after successful completion.
	// Output may be empty; DrainStream fills it from the accumulated deltas.
	Final <-chan *ChatResponse
}

// ForEachDelta delivers every delta to fn in arrival order and returns the
// stream's terminal error, if any. It blocks until the stream completes or
// ctx is cancelled.
func ForEachDelta(ctx context.Context, s *ChatStream, fn func(delta string)) error {
	if s == nil {
		return ErrNilStream
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-s.Ch:
			if !ok {
				return awaitErr(ctx, s)
			}
			fn(chunk.Delta)
		}
	}
}

// DrainStream accumulates all deltas and returns the final ChatResponse.
// Blocks until stream completes or context cancels.
//
// If Final carries no Output, the accumulated deltas are used.
func DrainStream(ctx context.Context, s *ChatStream) (*ChatResponse, error) {
	var accumulated strings.Builder
	if err := ForEachDelta(ctx, s, func(d string) { accumulated.WriteString(d) }); err != nil {
		return nil, err
	}

	var finalResp *ChatResponse
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp, ok := <-s.Final:
		if ok {
			finalResp = resp
		}
	}

	if finalResp == nil {
		finalResp = &ChatResponse{}
	}
	if finalResp.Output == "" {
		finalResp.Output = accumulated.String()
	}
	return finalResp, nil
}

// awaitErr waits for Err to deliver a value or close once Ch has closed.
func awaitErr(ctx context.Context, s *ChatStream) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-s.Err:
		return err
	}
}
