package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/bedrockchat/core"
)

var errPromptRequired = errors.New("prompt required: use --prompt or pipe text on stdin")

func (a *App) newChatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send a chat request",
		Long: `Send a chat request to the configured Bedrock model.

The prompt is taken from --prompt, or from stdin when stdin is not a terminal.

Examples:
  bedrockchat chat --prompt "Hello"
  bedrockchat chat --prompt "Hello" --stream
  git diff | bedrockchat chat --system "Review this patch" --json`,
		Args: cobra.NoArgs,
		RunE: a.runChat,
	}

	cmd.Flags().StringVar(&a.chatPrompt, "prompt", "", "User message (default: read from piped stdin)")
	cmd.Flags().StringVar(&a.chatSystem, "system", "", "System message (overrides chat.system_prompt)")
	cmd.Flags().Float32Var(&a.chatTemperature, "temperature", 0, "Temperature (0 = use configured default)")
	cmd.Flags().IntVar(&a.chatMaxTokens, "max-tokens", 0, "Max tokens (0 = use configured default)")
	cmd.Flags().BoolVar(&a.chatStream, "stream", false, "Enable streaming output")

	return cmd
}

func (a *App) runChat(cmd *cobra.Command, args []string) error {
	prompt, err := a.resolvePrompt()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := a.backend(ctx)
	if err != nil {
		return err
	}

	builder := b.Client.Chat("")
	if a.chatSystem != "" {
		builder = builder.System(a.chatSystem)
	}
	builder = builder.User(prompt)

	if a.chatTemperature > 0 {
		builder = builder.Temperature(a.chatTemperature)
	}
	if a.chatMaxTokens > 0 {
		builder = builder.MaxTokens(a.chatMaxTokens)
	}

	if a.chatStream {
		return a.runStreamingChat(ctx, builder)
	}
	return a.runNonStreamingChat(ctx, builder)
}

// resolvePrompt prefers --prompt and otherwise reads stdin, unless stdin is
// an interactive terminal.
func (a *App) resolvePrompt() (string, error) {
	if a.chatPrompt != "" {
		return a.chatPrompt, nil
	}

	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", exitWithCode(ExitValidation, errPromptRequired)
	}

	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", exitWithCode(ExitValidation, fmt.Errorf("reading stdin: %w", err))
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", exitWithCode(ExitValidation, errPromptRequired)
	}
	return prompt, nil
}

func (a *App) runNonStreamingChat(ctx context.Context, builder *core.ChatBuilder) error {
	resp, err := builder.GetResponse(ctx)
	if err != nil {
		return err
	}

	if a.jsonOutput {
		return a.outputJSON(resp)
	}

	fmt.Fprintln(a.stdout, resp.Output)
	return nil
}

func (a *App) runStreamingChat(ctx context.Context, builder *core.ChatBuilder) error {
	chatStream, err := builder.Stream(ctx)
	if err != nil {
		return err
	}

	if a.jsonOutput {
		resp, err := core.DrainStream(ctx, chatStream)
		if err != nil {
			return err
		}
		return a.outputJSON(resp)
	}

	// Deltas already printed stay on screen if the stream fails later.
	streamErr := core.ForEachDelta(ctx, chatStream, func(delta string) {
		fmt.Fprint(a.stdout, delta)
	})
	fmt.Fprintln(a.stdout)

	return streamErr
}

func (a *App) outputJSON(resp *core.ChatResponse) error {
	output := map[string]interface{}{
		"id":          resp.ID,
		"model":       resp.Model,
		"output":      resp.Output,
		"stop_reason": resp.StopReason,
	}

	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
