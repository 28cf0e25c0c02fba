package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/petal-labs/bedrockchat/core"
)

const eventStreamContentType = "application/vnd.amazon.eventstream"

func (p *Bedrock) invokeStreamURL(modelID string) string {
	return p.config.RuntimeURL + "/model/" + escapeModelID(modelID) + "/invoke-with-response-stream"
}

// doStreamChat performs a streaming chat request.
func (p *Bedrock) doStreamChat(ctx context.Context, req *core.ChatRequest) (*core.ChatStream, error) {
	modelID, err := p.modelFor(req)
	if err != nil {
		return nil, err
	}

	frames, requestID, err := p.invokeStreaming(ctx, modelID, Normalize(req.Messages, p.defaults(req)))
	if err != nil {
		return nil, err
	}

	dec := NewDecoder(frames, p.config.Logger)
	dec.requestID = requestID

	chunkCh := make(chan core.ChatChunk, 100)
	errCh := make(chan error, 1)
	finalCh := make(chan *core.ChatResponse, 1)

	go p.pumpStream(ctx, dec, modelID, chunkCh, errCh, finalCh)

	return &core.ChatStream{
		Ch:    chunkCh,
		Err:   errCh,
		Final: finalCh,
	}, nil
}

// invokeStreaming sends one InvokeModelWithResponseStream call and returns
// the undecoded frame reader along with the upstream request id.
func (p *Bedrock) invokeStreaming(ctx context.Context, modelID string, nreq *NormalizedRequest) (*FrameReader, string, error) {
	if len(nreq.Messages) == 0 {
		return nil, "", core.ErrEmptyConversation
	}
	if err := p.prepareCredentials(ctx); err != nil {
		return nil, "", err
	}

	body, err := json.Marshal(nreq)
	if err != nil {
		return nil, "", newDecodeError(err)
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", eventStreamContentType)
	headers.Set("X-Amzn-Bedrock-Accept", "application/json")

	httpReq, err := p.newSignedRequest(ctx, http.MethodPost, p.invokeStreamURL(modelID), body, headers)
	if err != nil {
		return nil, "", err
	}

	resp, err := p.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, "", newNetworkError(err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, "", normalizeError(resp, respBody)
	}

	return NewFrameReader(resp.Body), resp.Header.Get(headerRequestID), nil
}

// pumpStream forwards decoded deltas until the stream ends, fails, or ctx
// is cancelled.
func (p *Bedrock) pumpStream(
	ctx context.Context,
	dec *Decoder,
	modelID string,
	chunkCh chan<- core.ChatChunk,
	errCh chan<- error,
	finalCh chan<- *core.ChatResponse,
) {
	defer dec.Close()
	defer close(chunkCh)
	defer close(errCh)
	defer close(finalCh)

	for {
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		default:
		}

		text, err := dec.Recv()
		if errors.Is(err, io.EOF) {
			finalCh <- &core.ChatResponse{Model: core.ModelID(modelID)}
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				errCh <- ctx.Err()
				return
			}
			errCh <- err
			return
		}

		select {
		case chunkCh <- core.ChatChunk{Delta: text}:
		case <-ctx.Done():
			errCh <- ctx.Err()
			return
		}
	}
}
