package bedrock

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// ListFoundationModels lists the foundation models offered in the
// configured region. byProvider filters by provider name (e.g.
// "Anthropic"); empty lists everything.
func (p *Bedrock) ListFoundationModels(ctx context.Context, byProvider string) ([]FoundationModel, error) {
	if err := p.prepareCredentials(ctx); err != nil {
		return nil, err
	}

	u := p.config.ControlURL + "/foundation-models"
	if byProvider != "" {
		u += "?" + url.Values{"byProvider": {byProvider}}.Encode()
	}

	headers := make(http.Header)
	headers.Set("Accept", "application/json")

	httpReq, err := p.newSignedRequest(ctx, http.MethodGet, u, nil, headers)
	if err != nil {
		return nil, err
	}

	resp, err := p.config.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, newNetworkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newNetworkError(err)
	}

	if resp.StatusCode >= 400 {
		return nil, normalizeError(resp, body)
	}

	var out listFoundationModelsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, newDecodeError(err)
	}
	return out.ModelSummaries, nil
}
