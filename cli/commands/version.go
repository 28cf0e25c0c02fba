package commands

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
// Example: go build -ldflags "-X github.com/petal-labs/bedrockchat/cli/commands.Version=v1.0.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// sdkModulePrefix selects the dependencies worth reporting: the AWS SDK
// modules that sign, stream and assume roles.
const sdkModulePrefix = "github.com/aws/"

type versionInfo struct {
	Version   string            `json:"version"`
	Commit    string            `json:"commit"`
	BuildDate string            `json:"buildDate"`
	GoVersion string            `json:"goVersion"`
	Platform  string            `json:"platform"`
	AWSSDK    map[string]string `json:"awsSdk,omitempty"`
}

// currentVersion merges ldflags values with the binary's embedded build
// info. ldflags win; VCS stamps fill in what they leave unset.
func currentVersion() versionInfo {
	v := versionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v
	}

	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "unknown" {
				v.Commit = s.Value
			}
		case "vcs.time":
			if v.BuildDate == "unknown" {
				v.BuildDate = s.Value
			}
		}
	}
	for _, dep := range info.Deps {
		if strings.HasPrefix(dep.Path, sdkModulePrefix) {
			if v.AWSSDK == nil {
				v.AWSSDK = make(map[string]string)
			}
			v.AWSSDK[strings.TrimPrefix(dep.Path, sdkModulePrefix)] = dep.Version
		}
	}
	return v
}

func (a *App) newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the CLI version, commit, build date, Go runtime and AWS SDK module versions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := currentVersion()

			if a.jsonOutput {
				return json.NewEncoder(a.stdout).Encode(v)
			}

			fmt.Fprintf(a.stdout, "bedrockchat %s\n", v.Version)
			fmt.Fprintf(a.stdout, "  commit:     %s\n", v.Commit)
			fmt.Fprintf(a.stdout, "  built:      %s\n", v.BuildDate)
			fmt.Fprintf(a.stdout, "  go version: %s\n", v.GoVersion)
			fmt.Fprintf(a.stdout, "  platform:   %s\n", v.Platform)
			if sdk := v.AWSSDK["aws-sdk-go-v2"]; sdk != "" {
				fmt.Fprintf(a.stdout, "  aws sdk:    %s\n", sdk)
			}
			return nil
		},
	}
}
