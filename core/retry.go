package core

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy determines retry behavior for failed requests.
type RetryPolicy interface {
	// NextDelay returns the delay before the next retry attempt and whether to retry.
	// If ok is false, no more retries should be attempted.
	// attempt starts at 0 for the first retry after the initial failure.
	NextDelay(attempt int, err error) (delay time.Duration, ok bool)
}

// NoRetryPolicy never retries. It is the Client default: failures reach the
// caller unmodified.
type NoRetryPolicy struct{}

// NextDelay always reports that no retry should be attempted.
func (NoRetryPolicy) NextDelay(int, error) (time.Duration, bool) {
	return 0, false
}

// RetryConfig configures retry behavior.
type RetryConfig struct {
	MaxRetries int           // Maximum number of retry attempts (default: 3)
	BaseDelay  time.Duration // Initial delay before first retry (default: 1s)
	MaxDelay   time.Duration // Maximum delay cap (default: 30s)
	Jitter     float64       // Jitter factor 0.0-1.0 (default: 0.2)
}

// DefaultRetryPolicy returns an opt-in exponential backoff policy:
// max 3 retries, 1s base delay, 30s cap, 20% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return NewRetryPolicy(RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
		Jitter:     0.2,
	})
}

// NewRetryPolicy creates a retry policy with the given configuration.
func NewRetryPolicy(cfg RetryConfig) RetryPolicy {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 30 * time.Second
	}
	if cfg.Jitter < 0 || cfg.Jitter > 1 {
		cfg.Jitter = 0.2
	}
	return &exponentialBackoff{cfg: cfg}
}

type exponentialBackoff struct {
	cfg RetryConfig
}

func (e *exponentialBackoff) NextDelay(attempt int, err error) (time.Duration, bool) {
	if attempt >= e.cfg.MaxRetries {
		return 0, false
	}
	if !isRetryable(err) {
		return 0, false
	}

	delay := float64(e.cfg.BaseDelay) * math.Pow(2, float64(attempt))

	if e.cfg.Jitter > 0 {
		jitterRange := delay * e.cfg.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	if delay > float64(e.cfg.MaxDelay) {
		delay = float64(e.cfg.MaxDelay)
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay), true
}

// isRetryable determines if an error should trigger a retry.
// Delegation denials and initialization failures are configuration
// problems and are never retried, even when they wrap a transient cause.
// Stream failures are never retried: deltas may already be delivered.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	switch {
	case errors.Is(err, ErrDelegationDenied),
		errors.Is(err, ErrInitializationFailed),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrDecode),
		errors.Is(err, ErrUnexpectedResponseShape),
		errors.Is(err, ErrEmptyConversation),
		errors.Is(err, ErrStreamTransport):
		return false
	case errors.Is(err, ErrBrokerUnavailable),
		errors.Is(err, ErrNetwork),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrServer):
		return true
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return isRetryableStatus(pe.Status)
	}

	return false
}

// isRetryableStatus checks if an HTTP status code indicates a retryable error.
func isRetryableStatus(status int) bool {
	if status == 429 {
		return true
	}
	return status >= 500 && status < 600
}
