// Package normalize provides shared provider error normalization helpers.
package normalize

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/petal-labs/bedrockchat/core"
)

// awsJSONErrorResponse is the body of an AWS REST-JSON error. Services
// disagree on the capitalization of the message key.
type awsJSONErrorResponse struct {
	Message      string `json:"message"`
	MessageUpper string `json:"Message"`
	Type         string `json:"__type"`
}

// codeSentinels maps AWS error codes to core sentinels. Codes take
// precedence over the HTTP status when both are known.
var codeSentinels = map[string]error{
	"AccessDeniedException":         core.ErrUnauthorized,
	"UnrecognizedClientException":   core.ErrUnauthorized,
	"ExpiredTokenException":         core.ErrUnauthorized,
	"InvalidSignatureException":     core.ErrUnauthorized,
	"ThrottlingException":           core.ErrRateLimited,
	"ServiceQuotaExceededException": core.ErrRateLimited,
	"ValidationException":           core.ErrBadRequest,
	"ResourceNotFoundException":     core.ErrNotFound,
	"ModelNotReadyException":        core.ErrServer,
	"ModelTimeoutException":         core.ErrServer,
	"ModelErrorException":           core.ErrServer,
	"ServiceUnavailableException":   core.ErrServer,
	"InternalServerException":       core.ErrServer,
	"ModelStreamErrorException":     core.ErrServer,
}

// AWSErrorCode extracts the bare error code from an X-Amzn-ErrorType header
// or __type field, e.g. "ThrottlingException:http://internal.amazon.com/"
// or "com.amazon.coral#ThrottlingException".
func AWSErrorCode(raw string) string {
	if i := strings.IndexByte(raw, ':'); i >= 0 {
		raw = raw[:i]
	}
	if i := strings.LastIndexByte(raw, '#'); i >= 0 {
		raw = raw[i+1:]
	}
	return strings.TrimSpace(raw)
}

// AWSProviderError normalizes an AWS REST-JSON error response.
// errorType is the X-Amzn-ErrorType header value, which may be empty.
func AWSProviderError(provider string, status int, body []byte, requestID, errorType string) error {
	var errResp awsJSONErrorResponse
	_ = json.Unmarshal(body, &errResp)

	message := errResp.Message
	if message == "" {
		message = errResp.MessageUpper
	}

	code := AWSErrorCode(errorType)
	if code == "" {
		code = AWSErrorCode(errResp.Type)
	}

	return ProviderError(provider, status, requestID, code, message, SentinelForCode(code, status))
}

// SentinelForCode maps an AWS error code to a core sentinel, falling back
// to the HTTP status when the code is unknown.
func SentinelForCode(code string, status int) error {
	if s, ok := codeSentinels[code]; ok {
		return s
	}
	return SentinelForStatus(status)
}

// NetworkError wraps transport failures as provider-specific network errors.
func NetworkError(provider string, err error) error {
	return &core.ProviderError{
		Provider: provider,
		Message:  err.Error(),
		Err:      core.ErrNetwork,
	}
}

// DecodeError wraps decode/parsing failures as provider-specific decode errors.
func DecodeError(provider string, err error) error {
	return &core.ProviderError{
		Provider: provider,
		Message:  err.Error(),
		Err:      core.ErrDecode,
	}
}

// ProviderError constructs a normalized ProviderError.
// If message is empty, HTTP status text is used.
// If sentinel is nil, default status-based mapping is applied.
func ProviderError(provider string, status int, requestID, code, message string, sentinel error) error {
	if message == "" {
		message = http.StatusText(status)
	}
	if sentinel == nil {
		sentinel = SentinelForStatus(status)
	}
	return &core.ProviderError{
		Provider:  provider,
		Status:    status,
		RequestID: requestID,
		Code:      code,
		Message:   message,
		Err:       sentinel,
	}
}

// SentinelForStatus maps an HTTP status code to a core sentinel error.
func SentinelForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return core.ErrBadRequest
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.ErrUnauthorized
	case status == http.StatusNotFound:
		return core.ErrNotFound
	case status == http.StatusTooManyRequests:
		return core.ErrRateLimited
	default:
		return core.ErrServer
	}
}
