package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws/protocol/eventstream"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/sirupsen/logrus"

	"github.com/petal-labs/bedrockchat/auth"
	"github.com/petal-labs/bedrockchat/cli/config"
	"github.com/petal-labs/bedrockchat/core"
	"github.com/petal-labs/bedrockchat/providers/bedrock"
)

const testModel = "anthropic.claude-3-haiku-20240307-v1:0"

// fakeBroker stands in for STS.
type fakeBroker struct {
	mu          sync.Mutex
	assumeCalls int
	assumeErr   error
	whoamiErr   error
	lastRole    string
}

func (f *fakeBroker) AssumeDelegatedIdentity(ctx context.Context, roleARN, sessionName string, d time.Duration) (*auth.DelegatedCredential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assumeCalls++
	f.lastRole = roleARN
	if f.assumeErr != nil {
		return nil, f.assumeErr
	}
	return &auth.DelegatedCredential{
		AccessKeyID:     "ASIAROLE",
		SecretAccessKey: core.NewSecret("role-secret"),
		SessionToken:    core.NewSecret("role-token"),
		Expires:         time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (f *fakeBroker) WhoAmI(ctx context.Context, cred *auth.DelegatedCredential) (*auth.Identity, error) {
	if f.whoamiErr != nil {
		return nil, f.whoamiErr
	}
	if cred != nil {
		return &auth.Identity{
			Account: "123456789012",
			ARN:     "arn:aws:sts::123456789012:assumed-role/chat/" + auth.DefaultSessionName,
			UserID:  "AROA:" + auth.DefaultSessionName,
		}, nil
	}
	return &auth.Identity{
		Account: "123456789012",
		ARN:     "arn:aws:iam::123456789012:user/dev",
		UserID:  "AIDADEV",
	}, nil
}

func validConfig() *config.Config {
	cfg := config.Default()
	cfg.AWS.Region = "us-east-1"
	cfg.Bedrock.ModelID = testModel
	return cfg
}

func staticLoader(cfg *config.Config) ConfigLoader {
	return func(string) (*config.Config, error) {
		c := *cfg
		return &c, nil
	}
}

// testBackend wires the real graph against serverURL with a fake broker and
// static ambient credentials.
func testBackend(serverURL string, broker auth.Broker) BackendFactory {
	return func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Backend, error) {
		ambient := credentials.NewStaticCredentialsProvider("AKIDAMBIENT", "ambient-secret", "")
		return assembleBackend(cfg, log, broker, ambient,
			bedrock.WithRuntimeURL(serverURL),
			bedrock.WithControlURL(serverURL),
		), nil
	}
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

func runApp(t *testing.T, cfg *config.Config, factory BackendFactory, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(
		WithConfigLoader(staticLoader(cfg)),
		WithBackendFactory(factory),
		WithIO(strings.NewReader(stdin), &stdout, &stderr),
	)
	app.SetArgs(args)
	err := app.Execute()
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if ec, ok := err.(interface{ ExitCode() int }); ok {
		return ec.ExitCode()
	}
	return -1
}

// deltaFrames encodes text deltas as a Bedrock response stream.
func deltaFrames(t *testing.T, deltas ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := eventstream.NewEncoder()
	for _, d := range deltas {
		inner, _ := json.Marshal(map[string]interface{}{
			"type":  "content_block_delta",
			"delta": map[string]string{"type": "text_delta", "text": d},
		})
		payload, _ := json.Marshal(map[string][]byte{"bytes": inner})

		var h eventstream.Headers
		h.Set(":message-type", eventstream.StringValue("event"))
		h.Set(":event-type", eventstream.StringValue("chunk"))
		h.Set(":content-type", eventstream.StringValue("application/json"))
		if err := enc.Encode(&buf, eventstream.Message{Headers: h, Payload: payload}); err != nil {
			t.Fatalf("encode frame: %v", err)
		}
	}
	return buf.Bytes()
}
