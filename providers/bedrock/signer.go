package bedrock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// signingName is the SigV4 service name for both runtime and control plane.
const signingName = "bedrock"

// escapeModelID escapes a model id or inference profile ARN for use as a
// single path segment. Colons are escaped as the AWS SDKs do.
func escapeModelID(id string) string {
	return strings.ReplaceAll(url.PathEscape(id), ":", "%3A")
}

// prepareCredentials runs the credential preconditions shared by every
// call: first-time setup, then refresh if the current set is near expiry.
func (p *Bedrock) prepareCredentials(ctx context.Context) error {
	if err := p.creds.EnsureReady(ctx); err != nil {
		return err
	}
	return p.creds.RefreshIfNeeded(ctx, false)
}

// newSignedRequest builds a SigV4-signed request. The credential snapshot
// taken here is the one the request is signed with, even if a refresh
// replaces it while the call is in flight.
func (p *Bedrock) newSignedRequest(ctx context.Context, method, rawURL string, body []byte, headers http.Header) (*http.Request, error) {
	creds, err := p.creds.Retrieve(ctx)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, newNetworkError(err)
	}
	for key, values := range headers {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	sum := sha256.Sum256(body)
	if err := p.signer.SignHTTP(ctx, creds, httpReq, hex.EncodeToString(sum[:]), signingName, p.config.Region, time.Now()); err != nil {
		return nil, newNetworkError(err)
	}
	return httpReq, nil
}
