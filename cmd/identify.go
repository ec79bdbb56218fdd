// File: cmd/identify.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// newIdentifyCmd reports which browser answers on the debugging endpoint.
func newIdentifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "identify",
		Short: "Connects to the debugging endpoint and reports the browser identity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", client.BrowserIdentity(), client.Vendor())
				return nil
			})
		},
	}
}
