package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/petal-labs/bedrockchat/auth"
	"github.com/petal-labs/bedrockchat/core"
)

func TestAssembleBackendModes(t *testing.T) {
	logger, _ := test.NewNullLogger()
	ambient := credentials.NewStaticCredentialsProvider("AKID", "secret", "")

	b := assembleBackend(validConfig(), logger, &fakeBroker{}, ambient)
	if b.Manager.Mode() != auth.ModeAmbient {
		t.Errorf("Mode() = %v, want ambient", b.Manager.Mode())
	}
	if b.Provider.ID() != "bedrock" || b.Client.Provider() != b.Provider {
		t.Error("client not wired to the Bedrock provider")
	}

	cfg := validConfig()
	cfg.AWS.RoleARN = "arn:aws:iam::1:role/r"
	b = assembleBackend(cfg, logger, &fakeBroker{}, ambient)
	if b.Manager.Mode() != auth.ModeDelegated {
		t.Errorf("Mode() = %v, want delegated", b.Manager.Mode())
	}
}

func TestNewBackendFromEnvironment(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDENV")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "env-secret")
	t.Setenv("AWS_CONFIG_FILE", "/nonexistent/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", "/nonexistent/credentials")
	t.Setenv("AWS_PROFILE", "")

	logger, _ := test.NewNullLogger()
	b, err := NewBackend(context.Background(), validConfig(), logger)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	if b.Manager.Mode() != auth.ModeAmbient || b.Manager.Ready() {
		t.Errorf("Mode() = %v, Ready() = %v; want ambient and not yet initialized", b.Manager.Mode(), b.Manager.Ready())
	}
	if _, ok := b.Broker.(*auth.STSBroker); !ok {
		t.Errorf("Broker = %T, want *auth.STSBroker", b.Broker)
	}
}

func TestLogTelemetry(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	tel := logTelemetry{log: logger}

	tel.OnRequestStart(core.RequestStartEvent{RequestID: "r1", Provider: "bedrock"})
	tel.OnRequestEnd(core.RequestEndEvent{RequestID: "r1", Provider: "bedrock"})
	tel.OnRequestEnd(core.RequestEndEvent{RequestID: "r2", Provider: "bedrock", Err: errors.New("boom")})

	entries := hook.AllEntries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Data["request_id"] != "r1" || entries[0].Level != logrus.DebugLevel {
		t.Errorf("start entry = %+v", entries[0])
	}
	if entries[2].Level != logrus.WarnLevel || entries[2].Data[logrus.ErrorKey] == nil {
		t.Errorf("failure entry = %+v", entries[2])
	}
}
