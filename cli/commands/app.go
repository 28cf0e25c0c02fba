// Package commands implements the CLI command structure using Cobra.
package commands

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/petal-labs/bedrockchat/cli/config"
	"github.com/petal-labs/bedrockchat/cli/logging"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig  ConfigLoader
	openBackend BackendFactory
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer

	cfgFile    string
	region     string
	model      string
	jsonOutput bool
	verbose    bool

	cfg       *config.Config
	log       *logrus.Logger
	logCloser io.Closer

	chatPrompt      string
	chatSystem      string
	chatTemperature float32
	chatMaxTokens   int
	chatStream      bool

	modelsProvider string

	initRoleARN string
	initForce   bool
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithBackendFactory injects the factory that wires credentials, provider
// and client together.
func WithBackendFactory(factory BackendFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.openBackend = factory
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:     config.LoadConfig,
		openBackend:    NewBackend,
		stdin:          os.Stdin,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
		modelsProvider: "Anthropic",
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "bedrockchat",
		Short: "bedrockchat - chat with Claude on Amazon Bedrock",
		Long: `bedrockchat is a command-line interface for Anthropic models hosted on
Amazon Bedrock.

Credentials come from the standard AWS chain. When aws.role_arn is configured,
bedrockchat assumes that role through STS and refreshes the session before it
expires.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags available to all commands.
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.bedrockchat/config.yaml)")
	root.PersistentFlags().StringVar(&a.region, "region", "", "AWS region (overrides aws.region)")
	root.PersistentFlags().StringVar(&a.model, "model", "", "Bedrock model or inference profile ID (overrides bedrock.model_id)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newChatCommand())
	root.AddCommand(a.newWhoAmICommand())
	root.AddCommand(a.newModelsCommand())
	root.AddCommand(a.newInitCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command.
func (a *App) Execute() error {
	return a.ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx. Cancelling ctx aborts any
// in-flight model call.
func (a *App) ExecuteContext(ctx context.Context) error {
	err := a.root.ExecuteContext(ctx)
	a.closeLog()
	if err != nil {
		return a.handleError(err)
	}
	return nil
}

// SetArgs overrides the arguments used by Execute.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

func (a *App) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.DefaultConfigPath()
}

func (a *App) initConfig() error {
	cfg, err := a.loadConfig(a.configPath())
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	// Flags win over file and environment.
	if a.region != "" {
		cfg.AWS.Region = a.region
	}
	if a.model != "" {
		cfg.Bedrock.ModelID = a.model
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	a.cfg = cfg

	a.log, a.logCloser = logging.New(cfg.Logging, a.stderr)
	return nil
}

func (a *App) closeLog() {
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

// backend validates the loaded configuration and wires a Backend.
func (a *App) backend(ctx context.Context) (*Backend, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	return a.openBackend(ctx, a.cfg, a.log)
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute(ctx context.Context) error {
	return defaultApp.ExecuteContext(ctx)
}
