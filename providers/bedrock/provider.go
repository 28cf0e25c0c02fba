package bedrock

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/sirupsen/logrus"

	"github.com/petal-labs/bedrockchat/core"
)

// providerID is reported in errors and telemetry.
const providerID = "bedrock"

// CredentialSource supplies signing credentials and keeps them fresh.
// *auth.Manager satisfies it.
type CredentialSource interface {
	EnsureReady(ctx context.Context) error
	RefreshIfNeeded(ctx context.Context, force bool) error
	Retrieve(ctx context.Context) (aws.Credentials, error)
}

// Bedrock is a model provider for Anthropic models hosted on Amazon
// Bedrock. Bedrock is safe for concurrent use.
type Bedrock struct {
	config Config
	creds  CredentialSource
	signer *v4.Signer
}

// New creates a Bedrock provider that signs requests with creds.
func New(creds CredentialSource, opts ...Option) *Bedrock {
	cfg := Config{
		HTTPClient:       http.DefaultClient,
		AnthropicVersion: DefaultAnthropicVersion,
		MaxTokens:        DefaultMaxTokens,
		Temperature:      DefaultTemperature,
		SystemPrompt:     DefaultSystemPrompt,
		Logger:           logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.RuntimeURL == "" {
		cfg.RuntimeURL = fmt.Sprintf("https://bedrock-runtime.%s.amazonaws.com", cfg.Region)
	}
	if cfg.ControlURL == "" {
		cfg.ControlURL = fmt.Sprintf("https://bedrock.%s.amazonaws.com", cfg.Region)
	}

	return &Bedrock{
		config: cfg,
		creds:  creds,
		signer: v4.NewSigner(),
	}
}

// ID returns the provider identifier.
func (p *Bedrock) ID() string {
	return providerID
}

// Models returns the list of known models.
func (p *Bedrock) Models() []core.ModelInfo {
	result := make([]core.ModelInfo, len(models))
	copy(result, models)
	return result
}

// Supports reports whether the provider supports the given feature.
func (p *Bedrock) Supports(feature core.Feature) bool {
	switch feature {
	case core.FeatureChat, core.FeatureChatStreaming:
		return true
	default:
		return false
	}
}

// Chat sends a blocking chat request.
func (p *Bedrock) Chat(ctx context.Context, req *core.ChatRequest) (*core.ChatResponse, error) {
	return p.doChat(ctx, req)
}

// StreamChat sends a streaming chat request.
func (p *Bedrock) StreamChat(ctx context.Context, req *core.ChatRequest) (*core.ChatStream, error) {
	return p.doStreamChat(ctx, req)
}

// Compile-time check that Bedrock implements Provider.
var _ core.Provider = (*Bedrock)(nil)
