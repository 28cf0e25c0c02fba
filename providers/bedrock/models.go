// Package bedrock provides an Amazon Bedrock provider for Anthropic
// Claude models, signed with SigV4 credentials from a CredentialSource.
package bedrock

import "github.com/petal-labs/bedrockchat/core"

// Model constants for Claude models on Bedrock. The "us." ids are
// cross-region inference profiles.
const (
	ModelClaude3Haiku     core.ModelID = "anthropic.claude-3-haiku-20240307-v1:0"
	ModelClaude3Sonnet    core.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	ModelClaude35Haiku    core.ModelID = "anthropic.claude-3-5-haiku-20241022-v1:0"
	ModelClaude35Sonnet   core.ModelID = "anthropic.claude-3-5-sonnet-20240620-v1:0"
	ModelClaude35SonnetV2 core.ModelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	ModelClaude37Sonnet   core.ModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
	ModelClaudeSonnet4    core.ModelID = "us.anthropic.claude-sonnet-4-20250514-v1:0"
)

var chatFeatures = []core.Feature{core.FeatureChat, core.FeatureChatStreaming}

// models is the static list of known models.
var models = []core.ModelInfo{
	{ID: ModelClaude3Haiku, DisplayName: "Claude 3 Haiku", Capabilities: chatFeatures},
	{ID: ModelClaude3Sonnet, DisplayName: "Claude 3 Sonnet", Capabilities: chatFeatures},
	{ID: ModelClaude35Haiku, DisplayName: "Claude 3.5 Haiku", Capabilities: chatFeatures},
	{ID: ModelClaude35Sonnet, DisplayName: "Claude 3.5 Sonnet", Capabilities: chatFeatures},
	{ID: ModelClaude35SonnetV2, DisplayName: "Claude 3.5 Sonnet v2", Capabilities: chatFeatures},
	{ID: ModelClaude37Sonnet, DisplayName: "Claude 3.7 Sonnet (US profile)", Capabilities: chatFeatures},
	{ID: ModelClaudeSonnet4, DisplayName: "Claude Sonnet 4 (US profile)", Capabilities: chatFeatures},
}
