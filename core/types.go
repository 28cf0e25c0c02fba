// Package core provides the bedrockchat client and types.
package core

// Feature represents a capability that a provider may support.
type Feature string

const (
	FeatureChat          Feature = "chat"
	FeatureChatStreaming Feature = "chat_streaming"
)

// ModelInfo describes a model available from a provider.
type ModelInfo struct {
	ID           ModelID   `json:"id"`
	DisplayName  string    `json:"display_name"`
	Capabilities []Feature `json:"capabilities"`
}

// HasCapability reports whether the model supports the given feature.
func (m ModelInfo) HasCapability(f Feature) bool {
	for _, cap := range m.Capabilities {
		if cap == f {
			return true
		}
	}
	return false
}

// ModelID is a string identifier for a model.
// Bedrock accepts both foundation model IDs and inference profile IDs here.
type ModelID string

// Role represents a message participant role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single chat turn. Order within a conversation is significant.
// Providers drop messages with empty Content.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to a chat model.
//
// An empty Model selects the provider's configured default. Temperature and
// MaxTokens override the provider defaults when set.
type ChatRequest struct {
	Model       ModelID   `json:"model,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float32  `json:"temperature,omitempty"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
}

// ChatResponse represents a response from a chat model.
type ChatResponse struct {
	ID         string  `json:"id"`
	Model      ModelID `json:"model"`
	Output     string  `json:"output"`
	StopReason string  `json:"stop_reason,omitempty"`
}

// ChatChunk represents an incremental streaming response.
// Delta contains incremental assistant text.
type ChatChunk struct {
	Delta string `json:"delta"`
}
