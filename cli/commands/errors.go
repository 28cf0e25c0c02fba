package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/petal-labs/bedrockchat/cli/config"
	"github.com/petal-labs/bedrockchat/core"
)

// Exit codes
const (
	ExitSuccess     = 0
	ExitValidation  = 1
	ExitProvider    = 2
	ExitNetwork     = 3
	ExitCredentials = 4
)

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor classifies err. Network failures are checked before the
// generic upstream class they belong to.
func exitCodeFor(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	switch {
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, core.ErrModelRequired),
		errors.Is(err, core.ErrEmptyConversation),
		errors.Is(err, core.ErrNilStream):
		return ExitValidation
	case errors.Is(err, core.ErrBrokerUnavailable),
		errors.Is(err, core.ErrDelegationDenied),
		errors.Is(err, core.ErrInitializationFailed):
		return ExitCredentials
	case errors.Is(err, core.ErrNetwork):
		return ExitNetwork
	default:
		return ExitProvider
	}
}

func errorType(code int) string {
	switch code {
	case ExitValidation:
		return "validation_error"
	case ExitCredentials:
		return "credentials_error"
	case ExitNetwork:
		return "network_error"
	default:
		return "error"
	}
}

// handleError reports err on stderr and returns it with an exit code.
func (a *App) handleError(err error) error {
	code := exitCodeFor(err)

	var provErr *core.ProviderError
	isProvider := errors.As(err, &provErr)

	if a.jsonOutput {
		body := map[string]interface{}{
			"type":    errorType(code),
			"message": err.Error(),
		}
		if isProvider {
			if provErr.Code != "" {
				body["type"] = provErr.Code
			}
			if provErr.Message != "" {
				body["message"] = provErr.Message
			}
			body["provider"] = provErr.Provider
			body["status"] = provErr.Status
			body["request_id"] = provErr.RequestID
		}
		enc := json.NewEncoder(a.stderr)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]interface{}{"error": body})
	} else {
		if isProvider && provErr.Message != "" {
			fmt.Fprintf(a.stderr, "Error: %s\n", provErr.Message)
		} else {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
		}
		if isProvider && provErr.RequestID != "" {
			fmt.Fprintf(a.stderr, "  Provider: %s, Request ID: %s\n", provErr.Provider, provErr.RequestID)
		}
	}

	return exitWithCode(code, err)
}
