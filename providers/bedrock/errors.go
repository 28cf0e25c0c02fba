package bedrock

import (
	"encoding/json"
	"net/http"

	"github.com/petal-labs/bedrockchat/core"
	"github.com/petal-labs/bedrockchat/providers/internal/normalize"
)

// Response headers carrying error context.
const (
	headerRequestID = "X-Amzn-Requestid"
	headerErrorType = "X-Amzn-Errortype"
)

// normalizeError converts an HTTP error response to a ProviderError with
// the appropriate sentinel.
func normalizeError(resp *http.Response, body []byte) error {
	return normalize.AWSProviderError(providerID, resp.StatusCode, body,
		resp.Header.Get(headerRequestID), resp.Header.Get(headerErrorType))
}

// newNetworkError creates a ProviderError for network-related failures.
func newNetworkError(err error) error {
	return normalize.NetworkError(providerID, err)
}

// newDecodeError creates a ProviderError for JSON decode failures.
func newDecodeError(err error) error {
	return normalize.DecodeError(providerID, err)
}

// streamException converts an exception or error frame into a terminal
// stream error. The error wraps core.ErrStreamTransport.
func streamException(code string, payload []byte, requestID string) error {
	var body exceptionPayload
	_ = json.Unmarshal(payload, &body)

	message := body.Message
	if message == "" {
		message = body.MessageUpper
	}
	if message == "" {
		message = string(payload)
	}

	return &core.ProviderError{
		Provider:  providerID,
		RequestID: requestID,
		Code:      code,
		Message:   message,
		Err:       core.ErrStreamTransport,
	}
}
