package bedrock

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petal-labs/bedrockchat/core"
)

func TestListFoundationModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/foundation-models" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("byProvider"); got != "Anthropic" {
			t.Errorf("byProvider = %q", got)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "AWS4-HMAC-SHA256") {
			t.Error("request is not signed")
		}
		w.Write([]byte(`{"modelSummaries":[
			{"modelId":"anthropic.claude-3-haiku-20240307-v1:0","modelName":"Claude 3 Haiku","providerName":"Anthropic",
			 "inputModalities":["TEXT","IMAGE"],"outputModalities":["TEXT"],"responseStreamingSupported":true},
			{"modelId":"anthropic.claude-v2","modelName":"Claude","providerName":"Anthropic","responseStreamingSupported":true}
		]}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, &fakeCreds{})
	got, err := p.ListFoundationModels(context.Background(), "Anthropic")
	if err != nil {
		t.Fatalf("ListFoundationModels() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ModelID != testModel || got[0].ProviderName != "Anthropic" || !got[0].ResponseStreamingSupported {
		t.Errorf("got[0] = %+v", got[0])
	}
}

func TestListFoundationModelsNoFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "" {
			t.Errorf("RawQuery = %q, want empty", r.URL.RawQuery)
		}
		w.Write([]byte(`{"modelSummaries":[]}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, &fakeCreds{})
	got, err := p.ListFoundationModels(context.Background(), "")
	if err != nil || len(got) != 0 {
		t.Errorf("ListFoundationModels() = %v, %v", got, err)
	}
}

func TestListFoundationModelsErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Amzn-ErrorType", "AccessDeniedException")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"not authorized to perform bedrock:ListFoundationModels"}`))
	}))
	defer server.Close()

	p := newTestProvider(server.URL, &fakeCreds{})
	_, err := p.ListFoundationModels(context.Background(), "")
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("error = %v, want ErrUnauthorized", err)
	}

	creds := &fakeCreds{ensureErr: core.ErrInitializationFailed}
	p = newTestProvider(server.URL, creds)
	if _, err := p.ListFoundationModels(context.Background(), ""); !errors.Is(err, core.ErrInitializationFailed) {
		t.Errorf("error = %v, want ErrInitializationFailed", err)
	}
}
