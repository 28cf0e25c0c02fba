package bedrock

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/petal-labs/bedrockchat/core"
)

// maxLoggedBody bounds how much of an unexpected reply is logged.
const maxLoggedBody = 512

func (p *Bedrock) invokeURL(modelID string) string {
	return p.config.RuntimeURL + "/model/" + escapeModelID(modelID) + "/invoke"
}

// doChat performs a blocking chat request.
func (p *Bedrock) doChat(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	modelID, err := p.modelFor(req)
	if err != nil {
		return nil, err
	}

	resp, err := p.invokeBlocking(ctx, modelID, Normalize(req.Messages, p.defaults(req)))
	if err != nil {
		return nil, err
	}

	return mapResponse(resp, modelID), nil
}

// invokeBlocking sends one InvokeModel call and returns the decoded reply.
func (p *Bedrock) invokeBlocking(ctx context.Context, modelID string, nreq *NormalizedRequest) (*messagesResponse, error) {
	if len(nreq.Messages) == 0 {
		return nil, core.ErrEmptyConversation
	}
	if err := p.prepareCredentials(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(nreq)
	if err != nil {
		return nil, newDecodeError(err)
	}

	headers := make(http.Header)
	headers.Set("Content-Type", "application/json")
	headers.Set("Accept", "application/json")

	httpReq, err := p.newSignedRequest(ctx, http.MethodPost, p.invokeURL(modelID), body, headers)
	if err != nil {
		return nil, err
	}

	resp, err := p.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(err)
	}

	if resp.StatusCode >= 400 {
		return nil, normalizeError(resp, respBody)
	}

	out, err := decodeReply(respBody)
	if err != nil {
		p.config.Logger.WithFields(logrus.Fields{
			"model":      modelID,
			"request_id": resp.Header.Get(headerRequestID),
			"body":       truncate(respBody, maxLoggedBody),
		}).WithError(err).Warn("Unexpected response format from model")
		return nil, err
	}

	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
