// File: cmd/network.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// newNetworkCmd captures completed network exchanges for a fixed window
// and prints them.
func newNetworkCmd() *cobra.Command {
	var (
		duration  time.Duration
		urlFilter string
		method    string
	)

	networkCmd := &cobra.Command{
		Use:   "network",
		Short: "Captures network activity from the page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{network: true}, func(ctx context.Context, client devtools.Client) error {
				select {
				case <-ctx.Done():
				case <-time.After(duration):
				}

				entries := client.NetworkEntries(urlFilter, method)
				if len(entries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No network activity captured.")
					return nil
				}
				for _, e := range entries {
					if e.ErrorText != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "%s %s FAILED (%s)\n", e.Method, e.URL, e.ErrorText)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d %s\n", e.Method, e.URL, e.Status, e.MIMEType)
				}
				return nil
			})
		},
	}

	networkCmd.Flags().DurationVarP(&duration, "duration", "d", 5*time.Second, "how long to capture")
	networkCmd.Flags().StringVarP(&urlFilter, "url", "u", "", "only show requests whose URL contains this substring")
	networkCmd.Flags().StringVarP(&method, "method", "m", "", "only show requests with this HTTP method")
	return networkCmd
}
