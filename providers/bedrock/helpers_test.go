package bedrock

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

const testModel = "anthropic.claude-3-haiku-20240307-v1:0"

// fakeCreds is a CredentialSource that records the preconditions it sees.
type fakeCreds struct {
	mu           sync.Mutex
	ensureCalls  int
	refreshCalls int
	forced       bool
	ensureErr    error
	refreshErr   error
}

func (f *fakeCreds) EnsureReady(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	return f.ensureErr
}

func (f *fakeCreds) RefreshIfNeeded(ctx context.Context, force bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	f.forced = f.forced || force
	return f.refreshErr
}

func (f *fakeCreds) Retrieve(ctx context.Context) (aws.Credentials, error) {
	return aws.Credentials{
		AccessKeyID:     "ASIATESTKEY",
		SecretAccessKey: "test-secret",
		SessionToken:    "test-session-token",
		Source:          "test",
	}, nil
}

func nullLogger() (logrus.FieldLogger, *test.Hook) {
	l, hook := test.NewNullLogger()
	return l, hook
}

func newTestProvider(serverURL string, creds CredentialSource, opts ...Option) *Bedrock {
	l, _ := nullLogger()
	base := []Option{
		WithRegion("us-east-1"),
		WithModel(testModel),
		WithRuntimeURL(serverURL),
		WithControlURL(serverURL),
		WithLogger(l),
	}
	return New(creds, append(base, opts...)...)
}

func eventHeaders(messageType string, kv ...string) eventstream.Headers {
	var h eventstream.Headers
	h.Set(headerMessageType, eventstream.StringValue(messageType))
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], eventstream.StringValue(kv[i+1]))
	}
	return h
}

// chunkMessage wraps an inner JSON event the way Bedrock does.
func chunkMessage(t *testing.T, inner string) eventstream.Message {
	t.Helper()
	payload, err := json.Marshal(chunkEnvelope{Bytes: []byte(inner)})
	if err != nil {
		t.Fatalf("marshal chunk: %v", err)
	}
	return eventstream.Message{
		Headers: eventHeaders(messageTypeEvent,
			headerEventType, eventTypeChunk,
			headerContentType, "application/json"),
		Payload: payload,
	}
}

func deltaMessage(t *testing.T, text string) eventstream.Message {
	t.Helper()
	quoted, _ := json.Marshal(text)
	return chunkMessage(t, `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":`+string(quoted)+`}}`)
}

func exceptionMessage(code, message string) eventstream.Message {
	return eventstream.Message{
		Headers: eventHeaders(messageTypeException,
			headerExceptionType, code,
			headerContentType, "application/json"),
		Payload: []byte(`{"message":"` + message + `"}`),
	}
}

func encodeFrames(t *testing.T, msgs ...eventstream.Message) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := eventstream.NewEncoder()
	for _, m := range msgs {
		if err := enc.Encode(&buf, m); err != nil {
			t.Fatalf("encode frame: %v", err)
		}
	}
	return buf.Bytes()
}

// helloStream is the canonical three-delta reply wrapped in the events a
// real model emits around it.
func helloStream(t *testing.T) []byte {
	t.Helper()
	return encodeFrames(t,
		chunkMessage(t, `{"type":"message_start","message":{"id":"msg_1","role":"assistant"}}`),
		chunkMessage(t, `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`),
		deltaMessage(t, "Hel"),
		deltaMessage(t, "lo"),
		deltaMessage(t, "!"),
		chunkMessage(t, `{"type":"content_block_stop","index":0}`),
		chunkMessage(t, `{"type":"message_delta","delta":{"stop_reason":"end_turn"}}`),
		chunkMessage(t, `{"type":"message_stop"}`),
	)
}

// sliceSource is a FrameSource over prepared frames.
type sliceSource struct {
	frames []Frame
	err    error
	closed bool
}

func (s *sliceSource) Next() (Frame, error) {
	if len(s.frames) == 0 {
		if s.err != nil {
			return Frame{}, s.err
		}
		return Frame{}, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return f, nil
}

func (s *sliceSource) Close() error {
	s.closed = true
	return nil
}

func chunkFrame(payload string) Frame {
	return Frame{MessageType: messageTypeEvent, EventType: eventTypeChunk, Payload: []byte(payload)}
}

// envelope base64-wraps inner as a chunk payload.
func envelope(inner string) string {
	b, _ := json.Marshal(chunkEnvelope{Bytes: []byte(inner)})
	return string(b)
}
