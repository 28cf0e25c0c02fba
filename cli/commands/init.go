package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/petal-labs/bedrockchat/cli/config"
)

// projectConfigName is the config file written into scaffolded projects.
const projectConfigName = "bedrockchat.yaml"

func (a *App) newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [project-name]",
		Short: "Write a config file or scaffold a new project",
		Long: `Without arguments, write the CLI config file (see --config).

With a project name, create a project directory with:
  - main.go: A starter Go program using bedrockchat
  - bedrockchat.yaml: Project configuration

Region and model are required; they come from --region/--model or from the
environment (AWS_REGION, BEDROCKCHAT_BEDROCK_MODEL_ID).

Example:
  bedrockchat init --region us-east-1 --model anthropic.claude-3-5-haiku-20241022-v1:0
  bedrockchat init mybot --role-arn arn:aws:iam::123456789012:role/bedrock-chat`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runInit,
	}

	cmd.Flags().StringVar(&a.initRoleARN, "role-arn", "", "IAM role to assume for Bedrock calls")
	cmd.Flags().BoolVar(&a.initForce, "force", false, "Overwrite an existing config file")

	return cmd
}

func (a *App) runInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	cfg.AWS.Region = a.cfg.AWS.Region
	cfg.AWS.RoleARN = a.cfg.AWS.RoleARN
	cfg.Bedrock.ModelID = a.cfg.Bedrock.ModelID
	if a.initRoleARN != "" {
		cfg.AWS.RoleARN = a.initRoleARN
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if len(args) == 0 {
		return a.writeUserConfig(cfg)
	}
	return a.scaffoldProject(args[0], cfg)
}

func (a *App) writeUserConfig(cfg *config.Config) error {
	path := a.configPath()
	if _, err := os.Stat(path); err == nil && !a.initForce {
		return exitWithCode(ExitValidation, fmt.Errorf("config file %q already exists (use --force to overwrite)", path))
	}

	if err := config.WriteConfig(path, cfg); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(a.stdout, "Wrote %s\n", path)
	return nil
}

func (a *App) scaffoldProject(projectPath string, cfg *config.Config) error {
	projectName := filepath.Base(projectPath)

	if err := validateProjectName(projectName); err != nil {
		return exitWithCode(ExitValidation, err)
	}

	if _, err := os.Stat(projectPath); err == nil {
		return exitWithCode(ExitValidation, fmt.Errorf("directory %q already exists", projectPath))
	}

	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", projectPath, err)
	}

	data := templateData{
		Region:  cfg.AWS.Region,
		Model:   cfg.Bedrock.ModelID,
		RoleARN: cfg.AWS.RoleARN,
	}
	mainPath := filepath.Join(projectPath, "main.go")
	if err := generateFile(mainPath, mainGoTemplate, data); err != nil {
		return fmt.Errorf("failed to create main.go: %w", err)
	}

	configPath := filepath.Join(projectPath, projectConfigName)
	if err := config.WriteConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to create %s: %w", projectConfigName, err)
	}

	fmt.Fprintf(a.stdout, "Created bedrockchat project: %s\n\n", projectName)
	fmt.Fprintln(a.stdout, "Next steps:")
	fmt.Fprintf(a.stdout, "  cd %s\n", projectPath)
	fmt.Fprintln(a.stdout, "  go mod init", projectName)
	fmt.Fprintln(a.stdout, "  go mod tidy")
	fmt.Fprintln(a.stdout, "  go run main.go")

	return nil
}

var validProjectName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

func validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	if !validProjectName.MatchString(name) {
		return fmt.Errorf("invalid project name %q: must start with a letter and contain only letters, numbers, underscores, and hyphens", name)
	}

	if name == "bedrockchat" {
		return fmt.Errorf("invalid project name %q: reserved name", name)
	}

	return nil
}

type templateData struct {
	Region  string
	Model   string
	RoleARN string
}

func generateFile(path string, tmplContent string, data templateData) error {
	tmpl, err := template.New("file").Parse(tmplContent)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return tmpl.Execute(f, data)
}

// Templates

var mainGoTemplate = `package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/petal-labs/bedrockchat/auth"
	"github.com/petal-labs/bedrockchat/core"
	"github.com/petal-labs/bedrockchat/providers/bedrock"
)

func main() {
	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion("{{.Region}}"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	manager := auth.NewManager(auth.NewSTSBroker(awsCfg),
		auth.WithAmbientCredentials(awsCfg.Credentials),{{if .RoleARN}}
		auth.WithRoleARN("{{.RoleARN}}"),{{end}}
	)

	p := bedrock.New(manager,
		bedrock.WithRegion("{{.Region}}"),
		bedrock.WithModel("{{.Model}}"),
	)
	c := core.NewClient(p)

	turns := []core.Message{
		{Role: core.RoleUser, Content: "Hello, world!"},
	}

	reply, err := c.GenerateResponse(ctx, turns)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	fmt.Println(reply)
}
`
