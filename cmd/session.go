// File: cmd/session.go
package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/lancet-cli/internal/config"
	"github.com/xkilldash9x/lancet-cli/internal/devtools"
	"github.com/xkilldash9x/lancet-cli/internal/devtools/cdp"
	"github.com/xkilldash9x/lancet-cli/internal/devtools/rdp"
	"github.com/xkilldash9x/lancet-cli/internal/observability"
)

// newDevToolsClient picks the protocol implementation. Chrome and Edge
// share the Chromium wire protocol; Firefox speaks the actor protocol.
func newDevToolsClient(cfg config.ClientConfig, logger *zap.Logger) devtools.Client {
	if cfg.Protocol == "firefox" {
		return rdp.NewClient(cfg, logger)
	}
	return cdp.NewClient(cfg, logger)
}

// sessionOptions selects which capture domains a command needs enabled
// before its body runs.
type sessionOptions struct {
	console bool
	network bool
}

// runSession connects a client for the duration of one command: discover,
// attach, enable the requested capture domains, run fn, tear down.
func runSession(cmd *cobra.Command, opts sessionOptions, fn func(ctx context.Context, client devtools.Client) error) error {
	cfg, err := configFromContext(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	logger := observability.GetLogger()

	client := newDevToolsClient(cfg.Client, logger)
	if err := client.Connect(ctx, cfg.Client.Port); err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Debug("Error closing session.", zap.Error(err))
		}
	}()

	logger.Debug("Session established.",
		zap.String("browser", client.BrowserIdentity()),
		zap.String("vendor", string(client.Vendor())))

	if opts.console || opts.network {
		g, gctx := errgroup.WithContext(ctx)
		if opts.console {
			g.Go(func() error { return client.EnableConsole(gctx) })
		}
		if opts.network {
			g.Go(func() error { return client.EnableNetwork(gctx) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	return fn(ctx, client)
}
