// File: cmd/lancet/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/lancet-cli/cmd"
	"github.com/xkilldash9x/lancet-cli/internal/observability"
)

func main() {
	// Graceful shutdown on SIGINT/SIGTERM; the context reaches every
	// in-flight command through cobra.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
