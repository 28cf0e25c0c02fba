// Package config handles CLI configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/petal-labs/bedrockchat/auth"
	"github.com/petal-labs/bedrockchat/providers/bedrock"
)

// EnvPrefix is prepended to every environment override, e.g.
// BEDROCKCHAT_BEDROCK_MODEL_ID for bedrock.model_id.
const EnvPrefix = "BEDROCKCHAT"

// minSessionDuration is the shortest lifetime STS will issue.
const minSessionDuration = 15 * time.Minute

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the CLI configuration. It is loaded once and treated as
// immutable afterwards.
type Config struct {
	AWS     AWSConfig     `mapstructure:"aws" yaml:"aws"`
	Bedrock BedrockConfig `mapstructure:"bedrock" yaml:"bedrock"`
	Chat    ChatConfig    `mapstructure:"chat" yaml:"chat"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// AWSConfig selects the region and, optionally, a role to assume.
// An empty RoleARN means the ambient credential chain is used directly.
type AWSConfig struct {
	Region          string        `mapstructure:"region" yaml:"region"`
	RoleARN         string        `mapstructure:"role_arn" yaml:"role_arn,omitempty"`
	SessionName     string        `mapstructure:"session_name" yaml:"session_name,omitempty"`
	SessionDuration time.Duration `mapstructure:"session_duration" yaml:"-"`
}

// BedrockConfig holds model invocation settings.
type BedrockConfig struct {
	ModelID     string  `mapstructure:"model_id" yaml:"model_id"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
	Endpoint    string  `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
}

// ChatConfig holds conversation defaults.
type ChatConfig struct {
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MarshalYAML writes SessionDuration in its human-readable form.
func (c AWSConfig) MarshalYAML() (interface{}, error) {
	type plain AWSConfig
	out := struct {
		plain           `yaml:",inline"`
		SessionDuration string `yaml:"session_duration,omitempty"`
	}{plain: plain(c)}
	if c.SessionDuration > 0 {
		out.SessionDuration = c.SessionDuration.String()
	}
	return out, nil
}

// Default returns the configuration used when nothing is set. Region and
// model id have no defaults.
func Default() *Config {
	return &Config{
		AWS: AWSConfig{
			SessionName:     auth.DefaultSessionName,
			SessionDuration: auth.DefaultSessionDuration,
		},
		Bedrock: BedrockConfig{
			MaxTokens:   bedrock.DefaultMaxTokens,
			Temperature: bedrock.DefaultTemperature,
		},
		Chat: ChatConfig{
			SystemPrompt: bedrock.DefaultSystemPrompt,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.bedrockchat/config.yaml
// - Windows: %USERPROFILE%\.bedrockchat\config.yaml
func DefaultConfigPath() string {
	var homeDir string

	if runtime.GOOS == "windows" {
		homeDir = os.Getenv("USERPROFILE")
	} else {
		homeDir = os.Getenv("HOME")
	}

	if homeDir == "" {
		return "config.yaml"
	}

	return filepath.Join(homeDir, ".bedrockchat", "config.yaml")
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.role_arn", "")
	v.SetDefault("aws.session_name", d.AWS.SessionName)
	v.SetDefault("aws.session_duration", d.AWS.SessionDuration)
	v.SetDefault("bedrock.model_id", "")
	v.SetDefault("bedrock.max_tokens", d.Bedrock.MaxTokens)
	v.SetDefault("bedrock.temperature", d.Bedrock.Temperature)
	v.SetDefault("bedrock.endpoint", "")
	v.SetDefault("chat.system_prompt", d.Chat.SystemPrompt)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output", d.Logging.Output)
}

// LoadConfig loads configuration from path, layered over defaults and
// under environment overrides. A missing file is not an error; a file that
// exists but cannot be read or parsed is.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The standard AWS variables are honoured after our own.
	if err := v.BindEnv("aws.region", EnvPrefix+"_AWS_REGION", "AWS_REGION", "AWS_DEFAULT_REGION"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate reports missing or out-of-range settings. There are no
// fallback values for region or model id.
func (c *Config) Validate() error {
	var problems []string

	if c.AWS.Region == "" {
		problems = append(problems, "aws.region is required (or set AWS_REGION)")
	}
	if c.Bedrock.ModelID == "" {
		problems = append(problems, "bedrock.model_id is required")
	}
	if c.Bedrock.MaxTokens <= 0 {
		problems = append(problems, "bedrock.max_tokens must be positive")
	}
	if c.Bedrock.Temperature < 0 || c.Bedrock.Temperature > 1 {
		problems = append(problems, "bedrock.temperature must be between 0 and 1")
	}
	if c.AWS.RoleARN != "" && c.AWS.SessionDuration < minSessionDuration {
		problems = append(problems, fmt.Sprintf("aws.session_duration must be at least %s", minSessionDuration))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// WriteConfig writes cfg as YAML to path, creating parent directories.
// The file is readable by the owner only.
func WriteConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
