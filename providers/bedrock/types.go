package bedrock

// NormalizedRequest is the Anthropic Messages body sent to InvokeModel.
// Messages is never empty.
type NormalizedRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	System           string    `json:"system,omitempty"`
	Messages         []Message `json:"messages"`
	MaxTokens        int       `json:"max_tokens"`
	Temperature      float32   `json:"temperature"`
}

// Message is a single user or assistant turn.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is a typed content block. Only text blocks are produced.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// messagesResponse is the blocking reply body.
type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

// chunkEnvelope is the payload of a "chunk" event frame. Bytes holds the
// base64-encoded inner event, which encoding/json decodes into raw bytes.
type chunkEnvelope struct {
	Bytes []byte `json:"bytes"`
}

// streamEvent is the inner JSON of a chunk.
type streamEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta,omitempty"`
}

// exceptionPayload is the body of an exception frame.
type exceptionPayload struct {
	Message      string `json:"message"`
	MessageUpper string `json:"Message"`
}

// FoundationModel summarizes a model offered in a region.
type FoundationModel struct {
	ModelARN                   string   `json:"modelArn"`
	ModelID                    string   `json:"modelId"`
	ModelName                  string   `json:"modelName"`
	ProviderName               string   `json:"providerName"`
	InputModalities            []string `json:"inputModalities"`
	OutputModalities           []string `json:"outputModalities"`
	ResponseStreamingSupported bool     `json:"responseStreamingSupported"`
}

// listFoundationModelsResponse is the ListFoundationModels reply body.
type listFoundationModelsResponse struct {
	ModelSummaries []FoundationModel `json:"modelSummaries"`
}
