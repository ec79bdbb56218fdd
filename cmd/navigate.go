// File: cmd/navigate.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// newNavigateCmd points the attached tab at a URL.
func newNavigateCmd() *cobra.Command {
	var wait bool

	navCmd := &cobra.Command{
		Use:   "navigate <url>",
		Short: "Navigates the attached tab to the given URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				if err := client.Navigate(ctx, url, wait); err != nil {
					return fmt.Errorf("navigating to %s: %w", url, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Navigated to %s\n", url)
				return nil
			})
		},
	}

	navCmd.Flags().BoolVar(&wait, "wait", true, "wait for the page load to complete")
	return navCmd
}
