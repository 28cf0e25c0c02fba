//go:build integration

package integration

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/petal-labs/bedrockchat/auth"
	"github.com/petal-labs/bedrockchat/core"
	"github.com/petal-labs/bedrockchat/providers/bedrock"
)

// isCI reports whether a common CI environment variable is set.
func isCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "CIRCLECI", "TRAVIS", "JENKINS_URL"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}

// skipOrFailOnMissing skips locally and fails in CI unless
// BEDROCKCHAT_SKIP_INTEGRATION is set.
func skipOrFailOnMissing(t *testing.T, name string) {
	t.Helper()
	if isCI() && os.Getenv("BEDROCKCHAT_SKIP_INTEGRATION") == "" {
		t.Fatalf("%s not set (CI environment detected; set BEDROCKCHAT_SKIP_INTEGRATION=1 to skip)", name)
	}
	t.Skipf("%s not set", name)
}

// target is the region and model the tests talk to.
type target struct {
	Region  string
	ModelID string
	RoleARN string
}

// requireBedrock reads AWS_REGION and BEDROCK_MODEL_ID, skipping when
// either is missing. BEDROCK_ROLE_ARN is optional.
func requireBedrock(t *testing.T) target {
	t.Helper()
	tg := target{
		Region:  os.Getenv("AWS_REGION"),
		ModelID: os.Getenv("BEDROCK_MODEL_ID"),
		RoleARN: os.Getenv("BEDROCK_ROLE_ARN"),
	}
	if tg.Region == "" {
		skipOrFailOnMissing(t, "AWS_REGION")
	}
	if tg.ModelID == "" {
		skipOrFailOnMissing(t, "BEDROCK_MODEL_ID")
	}
	return tg
}

// newClient wires the library the way an application would.
func newClient(t *testing.T, tg target, roleARN string) (*core.Client, *bedrock.Bedrock, *auth.Manager, *auth.STSBroker) {
	t.Helper()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(tg.Region))
	if err != nil {
		t.Fatalf("LoadDefaultConfig() error = %v", err)
	}

	broker := auth.NewSTSBroker(awsCfg)
	opts := []auth.Option{auth.WithAmbientCredentials(awsCfg.Credentials)}
	if roleARN != "" {
		opts = append(opts, auth.WithRoleARN(roleARN))
	}
	manager := auth.NewManager(broker, opts...)

	provider := bedrock.New(manager,
		bedrock.WithRegion(tg.Region),
		bedrock.WithModel(tg.ModelID),
		bedrock.WithMaxTokens(256),
	)
	return core.NewClient(provider), provider, manager, broker
}

// cliResult holds the result of running a CLI command.
type cliResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runCLI runs the prebuilt binary with an empty config file so only the
// environment and flags apply.
func runCLI(t *testing.T, args ...string) cliResult {
	return runCLIWithStdin(t, "", args...)
}

func runCLIWithStdin(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()

	if cliBinary == "" {
		t.Fatal("CLI binary not built - TestMain may not have run")
	}

	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cmd := exec.Command(cliBinary, append([]string{"--config", cfgPath}, args...)...)
	cmd.Stdin = bytes.NewBufferString(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("Failed to run CLI: %v", err)
		}
	}

	return cliResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}
}
