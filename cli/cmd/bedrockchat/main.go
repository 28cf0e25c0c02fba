// bedrockchat CLI - chat with Anthropic models on Amazon Bedrock.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/petal-labs/bedrockchat/cli/commands"
)

// ExitCoder is an interface for errors that have an exit code.
type ExitCoder interface {
	ExitCode() int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Execute(ctx)
	stop()

	if err != nil {
		if ec, ok := err.(ExitCoder); ok {
			os.Exit(ec.ExitCode())
		}
		os.Exit(1)
	}
}
