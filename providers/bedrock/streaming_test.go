package bedrock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/petal-labs/bedrockchat/core"
)

func eventStreamServer(t *testing.T, payload []byte) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/invoke-with-response-stream") {
			t.Errorf("Path = %s", r.URL.Path)
		}
		if r.Header.Get("Accept") != eventStreamContentType {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		if r.Header.Get("X-Amzn-Bedrock-Accept") != "application/json" {
			t.Errorf("X-Amzn-Bedrock-Accept = %q", r.Header.Get("X-Amzn-Bedrock-Accept"))
		}
		w.Header().Set("Content-Type", eventStreamContentType)
		w.Header().Set("X-Amzn-RequestId", "req-stream")
		w.Write(payload)
	}))
}

func TestStreamChat(t *testing.T) {
	server := eventStreamServer(t, helloStream(t))
	defer server.Close()

	p := newTestProvider(server.URL, &fakeCreds{})
	stream, err := p.StreamChat(context.Background(), &core.ChatRequest{
		Messages: []core.Message{{Role: core.RoleUser, Content: "Hi"}},
	})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	resp, err := core.DrainStream(context.Background(), stream)
	if err != nil {
		t.Fatalf("DrainStream() error = %v", err)
	}
	if resp.Output != "Hello!" {
		t.Errorf("Output = %q, want Hello!", resp.Output)
	}
	if resp.Model != testModel {
		t.Errorf("Model = %q", resp.Model)
	}
}

func TestGenerateStreamingResponseEndToEnd(t *testing.T) {
	server := eventStreamServer(t, helloStream(t))
	defer server.Close()

	client := core.NewClient(newTestProvider(server.URL, &fakeCreds{}))

	var deltas []string
	err := client.GenerateStreamingResponse(context.Background(),
		[]core.Message{{Role: core.RoleUser, Content: "Hi"}},
		func(d string) { deltas = append(deltas, d) })
	if err != nil {
		t.Fatalf("GenerateStreamingResponse() error = %v", err)
	}
	if strings.Join(deltas, "") != "Hello!" || len(deltas) != 3 {
		t.Errorf("deltas = %q, want [Hel lo !]", deltas)
	}
}

func TestStreamChatHTTPErrorBeforeStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Amzn-ErrorType", "ThrottlingException")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"message":"Too many requests"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, &fakeCreds{})
	stream, err := p.StreamChat(context.Background(), &core.ChatRequest{})
	if stream != nil {
		t.Error("expected no stream on HTTP error")
	}
	if !errors.Is(err, core.ErrRateLimited) {
		t.Errorf("error = %v, want ErrRateLimited", err)
	}
}

func TestStreamChatMidStreamException(t *testing.T) {
	server := eventStreamServer(t, encodeFrames(t,
		deltaMessage(t, "Hel"),
		exceptionMessage("modelStreamErrorException", "model failed"),
	))
	defer server.Close()

	client := core.NewClient(newTestProvider(server.URL, &fakeCreds{}))

	var got strings.Builder
	err := client.GenerateStreamingResponse(context.Background(), nil, func(d string) { got.WriteString(d) })

	if !errors.Is(err, core.ErrStreamTransport) {
		t.Fatalf("error = %v, want ErrStreamTransport", err)
	}
	var pe *core.ProviderError
	if !errors.As(err, &pe) || pe.RequestID != "req-stream" || pe.Code != "modelStreamErrorException" {
		t.Errorf("error = %#v", err)
	}
	if got.String() != "Hel" {
		t.Errorf("delivered = %q, want Hel", got.String())
	}
}

func TestStreamChatContextCancel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", eventStreamContentType)
		w.Write(encodeFrames(t, deltaMessage(t, "first")))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	p := newTestProvider(server.URL, &fakeCreds{})

	stream, err := p.StreamChat(ctx, &core.ChatRequest{})
	if err != nil {
		t.Fatalf("StreamChat() error = %v", err)
	}

	chunk := <-stream.Ch
	if chunk.Delta != "first" {
		t.Fatalf("Delta = %q, want first", chunk.Delta)
	}
	cancel()

	select {
	case err := <-stream.Err:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate after cancel")
	}

	for range stream.Ch {
	}
	if _, ok := <-stream.Final; ok {
		t.Error("Final delivered after cancel")
	}
}
