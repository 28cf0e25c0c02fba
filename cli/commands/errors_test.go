package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/petal-labs/bedrockchat/cli/config"
	"github.com/petal-labs/bedrockchat/core"
)

func TestExitError(t *testing.T) {
	cause := errors.New("test error")
	err := exitWithCode(ExitValidation, cause)

	if err.Error() != "test error" {
		t.Errorf("Error() = %q, want 'test error'", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("exitError does not unwrap to its cause")
	}
	if exitCode(err) != ExitValidation {
		t.Errorf("ExitCode() = %d, want %d", exitCode(err), ExitValidation)
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"success", ExitSuccess, 0},
		{"validation", ExitValidation, 1},
		{"provider", ExitProvider, 2},
		{"network", ExitNetwork, 3},
		{"credentials", ExitCredentials, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.want {
				t.Errorf("Exit%s = %d, want %d", tt.name, tt.code, tt.want)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid config", fmt.Errorf("%w: aws.region is required", config.ErrInvalidConfig), ExitValidation},
		{"model required", core.ErrModelRequired, ExitValidation},
		{"empty conversation", core.ErrEmptyConversation, ExitValidation},
		{"nil stream", core.ErrNilStream, ExitValidation},
		{"broker unavailable", core.ErrBrokerUnavailable, ExitCredentials},
		{"delegation denied", core.ErrDelegationDenied, ExitCredentials},
		{"init failed", fmt.Errorf("%w: %w", core.ErrInitializationFailed, core.ErrDelegationDenied), ExitCredentials},
		{"network", &core.ProviderError{Provider: "bedrock", Err: core.ErrNetwork}, ExitNetwork},
		{"rate limited", &core.ProviderError{Provider: "bedrock", Status: 429, Err: core.ErrRateLimited}, ExitProvider},
		{"stream transport", core.ErrStreamTransport, ExitProvider},
		{"preset", exitWithCode(ExitNetwork, errors.New("x")), ExitNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestHandleErrorProviderJSON(t *testing.T) {
	var stderr bytes.Buffer
	a := NewApp(WithIO(nil, nil, &stderr))
	a.jsonOutput = true

	err := a.handleError(&core.ProviderError{
		Provider:  "bedrock",
		Status:    429,
		RequestID: "req_123",
		Code:      "ThrottlingException",
		Message:   "Too many requests",
		Err:       core.ErrRateLimited,
	})
	if exitCode(err) != ExitProvider {
		t.Errorf("ExitCode() = %d, want %d", exitCode(err), ExitProvider)
	}

	var out struct {
		Error map[string]interface{} `json:"error"`
	}
	if err := json.Unmarshal(stderr.Bytes(), &out); err != nil {
		t.Fatalf("stderr is not JSON: %q", stderr.String())
	}
	if out.Error["type"] != "ThrottlingException" || out.Error["request_id"] != "req_123" || out.Error["status"] != float64(429) {
		t.Errorf("error = %v", out.Error)
	}
}

func TestHandleErrorText(t *testing.T) {
	var stderr bytes.Buffer
	a := NewApp(WithIO(nil, nil, &stderr))

	err := a.handleError(core.ErrNetwork)
	if exitCode(err) != ExitNetwork {
		t.Errorf("ExitCode() = %d, want %d", exitCode(err), ExitNetwork)
	}
	if !strings.HasPrefix(stderr.String(), "Error: ") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestHandleErrorProviderJSONWithoutCode(t *testing.T) {
	var stderr bytes.Buffer
	a := NewApp(WithIO(nil, nil, &stderr))
	a.jsonOutput = true

	err := a.handleError(&core.ProviderError{
		Provider: "bedrock",
		Message:  "dial tcp 127.0.0.1:443: connect: connection refused",
		Err:      core.ErrNetwork,
	})
	if exitCode(err) != ExitNetwork {
		t.Errorf("ExitCode() = %d, want %d", exitCode(err), ExitNetwork)
	}

	var out struct {
		Error map[string]interface{} `json:"error"`
	}
	if err := json.Unmarshal(stderr.Bytes(), &out); err != nil {
		t.Fatalf("stderr is not JSON: %q", stderr.String())
	}
	if out.Error["type"] != "network_error" {
		t.Errorf("type = %v, want network_error", out.Error["type"])
	}
	if msg, _ := out.Error["message"].(string); !strings.Contains(msg, "connection refused") {
		t.Errorf("message = %q", msg)
	}
}
