package commands

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/sirupsen/logrus"

	"github.com/petal-labs/bedrockchat/auth"
	"github.com/petal-labs/bedrockchat/cli/config"
	"github.com/petal-labs/bedrockchat/core"
	"github.com/petal-labs/bedrockchat/providers/bedrock"
)

// Backend is the wired object graph commands work against.
type Backend struct {
	Manager  *auth.Manager
	Broker   auth.Broker
	Provider *bedrock.Bedrock
	Client   *core.Client
}

// BackendFactory builds a Backend from validated configuration.
type BackendFactory func(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Backend, error)

// NewBackend loads the ambient AWS configuration for cfg.AWS.Region and
// wires STS, the credential manager, the Bedrock provider and the client.
// Nothing is called on AWS until the first command needs credentials.
func NewBackend(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*Backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS configuration: %w", core.ErrInitializationFailed, err)
	}
	return assembleBackend(cfg, log, auth.NewSTSBroker(awsCfg), awsCfg.Credentials), nil
}

// assembleBackend wires the graph around an already constructed broker and
// ambient credential provider.
func assembleBackend(cfg *config.Config, log logrus.FieldLogger, broker auth.Broker, ambient aws.CredentialsProvider, extra ...bedrock.Option) *Backend {
	manager := auth.NewManager(broker,
		auth.WithRoleARN(cfg.AWS.RoleARN),
		auth.WithSessionName(cfg.AWS.SessionName),
		auth.WithSessionDuration(cfg.AWS.SessionDuration),
		auth.WithAmbientCredentials(ambient),
		auth.WithLogger(log),
	)

	opts := []bedrock.Option{
		bedrock.WithRegion(cfg.AWS.Region),
		bedrock.WithModel(cfg.Bedrock.ModelID),
		bedrock.WithMaxTokens(cfg.Bedrock.MaxTokens),
		bedrock.WithTemperature(cfg.Bedrock.Temperature),
		bedrock.WithSystemPrompt(cfg.Chat.SystemPrompt),
		bedrock.WithLogger(log),
	}
	if cfg.Bedrock.Endpoint != "" {
		opts = append(opts, bedrock.WithRuntimeURL(cfg.Bedrock.Endpoint))
	}
	provider := bedrock.New(manager, append(opts, extra...)...)

	client := core.NewClient(provider, core.WithTelemetry(logTelemetry{log: log}))

	return &Backend{
		Manager:  manager,
		Broker:   broker,
		Provider: provider,
		Client:   client,
	}
}

// logTelemetry reports request lifecycle events at debug level.
type logTelemetry struct {
	log logrus.FieldLogger
}

func (t logTelemetry) OnRequestStart(e core.RequestStartEvent) {
	t.log.WithFields(logrus.Fields{
		"request_id": e.RequestID,
		"provider":   e.Provider,
		"model":      e.Model,
		"streaming":  e.Streaming,
	}).Debug("model request started")
}

func (t logTelemetry) OnRequestEnd(e core.RequestEndEvent) {
	entry := t.log.WithFields(logrus.Fields{
		"request_id": e.RequestID,
		"provider":   e.Provider,
		"model":      e.Model,
		"streaming":  e.Streaming,
		"duration":   e.Duration().String(),
	})
	if e.Err != nil {
		entry.WithError(e.Err).Warn("model request failed")
		return
	}
	entry.Debug("model request finished")
}
