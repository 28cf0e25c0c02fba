package bedrock

import (
	"encoding/json"
	"fmt"

	"github.com/petal-labs/bedrockchat/core"
)

// fallbackText is sent as the sole user turn when nothing else survives
// normalization.
const fallbackText = "Hello"

// Defaults are the request-independent values Normalize attaches.
type Defaults struct {
	AnthropicVersion string
	System           string
	MaxTokens        int
	Temperature      float32
}

// Normalize converts chat turns into a request body. It is pure.
//
// Turns with empty content are dropped. Each system turn replaces the
// system instruction, so the last one wins. User and assistant turns keep
// their order; any other role is sent as user. If no turn survives, a
// single "Hello" user turn is substituted.
func Normalize(msgs []core.Message, d Defaults) *NormalizedRequest {
	req := &NormalizedRequest{
		AnthropicVersion: d.AnthropicVersion,
		System:           d.System,
		MaxTokens:        d.MaxTokens,
		Temperature:      d.Temperature,
	}

	for _, msg := range msgs {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case core.RoleSystem:
			req.System = msg.Content
		case core.RoleAssistant:
			req.Messages = append(req.Messages, textMessage(string(core.RoleAssistant), msg.Content))
		default:
			req.Messages = append(req.Messages, textMessage(string(core.RoleUser), msg.Content))
		}
	}

	if len(req.Messages) == 0 {
		req.Messages = []Message{textMessage(string(core.RoleUser), fallbackText)}
	}

	return req
}

func textMessage(role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentBlock{{Type: "text", Text: text}},
	}
}

// defaults returns the configured defaults with per-request overrides
// applied.
func (p *Bedrock) defaults(req *core.ChatRequest) Defaults {
	d := Defaults{
		AnthropicVersion: p.config.AnthropicVersion,
		System:           p.config.SystemPrompt,
		MaxTokens:        p.config.MaxTokens,
		Temperature:      p.config.Temperature,
	}
	if req.MaxTokens != nil {
		d.MaxTokens = *req.MaxTokens
	}
	if req.Temperature != nil {
		d.Temperature = *req.Temperature
	}
	return d
}

// modelFor resolves the model for a request.
func (p *Bedrock) modelFor(req *core.ChatRequest) (string, error) {
	if req.Model != "" {
		return string(req.Model), nil
	}
	if p.config.ModelID != "" {
		return p.config.ModelID, nil
	}
	return "", core.ErrModelRequired
}

// decodeReply parses a blocking reply body. Anything other than a JSON
// object whose first content block is text is ErrUnexpectedResponseShape.
func decodeReply(body []byte) (*messagesResponse, error) {
	var out messagesResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrUnexpectedResponseShape, err)
	}
	if len(out.Content) == 0 || out.Content[0].Type != "text" {
		return nil, core.ErrUnexpectedResponseShape
	}
	return &out, nil
}

// mapResponse converts a reply accepted by decodeReply.
func mapResponse(resp *messagesResponse, model string) *core.ChatResponse {
	return &core.ChatResponse{
		ID:         resp.ID,
		Model:      core.ModelID(model),
		Output:     resp.Content[0].Text,
		StopReason: resp.StopReason,
	}
}
