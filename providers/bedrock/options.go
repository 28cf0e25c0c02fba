package bedrock

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// Config holds configuration for the Bedrock provider.
type Config struct {
	// Region is the AWS region hosting the model (required).
	Region string

	// ModelID is the default model or inference profile id. A model passed
	// on the request takes precedence.
	ModelID string

	// RuntimeURL overrides the bedrock-runtime endpoint.
	// Defaults to https://bedrock-runtime.{Region}.amazonaws.com
	RuntimeURL string

	// ControlURL overrides the bedrock control-plane endpoint used for
	// model listing. Defaults to https://bedrock.{Region}.amazonaws.com
	ControlURL string

	// HTTPClient is the HTTP client to use. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// AnthropicVersion is the wire schema version tag.
	AnthropicVersion string

	// MaxTokens is the default output token cap.
	MaxTokens int

	// Temperature is the default sampling temperature.
	Temperature float32

	// SystemPrompt is used when a conversation carries no system turn.
	SystemPrompt string

	// Logger receives diagnostics. Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// DefaultAnthropicVersion is the schema version Bedrock expects for
// Anthropic models.
const DefaultAnthropicVersion = "bedrock-2023-05-31"

// DefaultMaxTokens is the output cap when none is configured.
const DefaultMaxTokens = 1024

// DefaultTemperature is the sampling temperature when none is configured.
const DefaultTemperature float32 = 0.7

// DefaultSystemPrompt is the system instruction when none is configured.
const DefaultSystemPrompt = "You are a helpful AI assistant."

// Option configures the Bedrock provider.
type Option func(*Config)

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithModel sets the default model id.
func WithModel(id string) Option {
	return func(c *Config) {
		c.ModelID = id
	}
}

// WithRuntimeURL overrides the runtime endpoint.
func WithRuntimeURL(url string) Option {
	return func(c *Config) {
		c.RuntimeURL = url
	}
}

// WithControlURL overrides the control-plane endpoint.
func WithControlURL(url string) Option {
	return func(c *Config) {
		c.ControlURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithAnthropicVersion sets the wire schema version tag.
func WithAnthropicVersion(v string) Option {
	return func(c *Config) {
		c.AnthropicVersion = v
	}
}

// WithMaxTokens sets the default output token cap.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxTokens = n
		}
	}
}

// WithTemperature sets the default temperature.
func WithTemperature(t float32) Option {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithSystemPrompt sets the default system instruction.
func WithSystemPrompt(s string) Option {
	return func(c *Config) {
		c.SystemPrompt = s
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}
