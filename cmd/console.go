// File: cmd/console.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// newConsoleCmd captures console output from the attached page for a
// fixed window and prints it.
func newConsoleCmd() *cobra.Command {
	var (
		duration time.Duration
		level    string
	)

	consoleCmd := &cobra.Command{
		Use:   "console",
		Short: "Captures console messages from the page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{console: true}, func(ctx context.Context, client devtools.Client) error {
				select {
				case <-ctx.Done():
				case <-time.After(duration):
				}

				messages := client.ConsoleMessages(level)
				if len(messages) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No console messages captured.")
					return nil
				}
				for _, m := range messages {
					fmt.Fprintf(cmd.OutOrStdout(), "%s [%s] %s\n",
						m.Timestamp.Format(time.RFC3339), m.Level, m.Text)
				}
				return nil
			})
		},
	}

	consoleCmd.Flags().DurationVarP(&duration, "duration", "d", 5*time.Second, "how long to capture")
	consoleCmd.Flags().StringVarP(&level, "level", "l", "", "only show messages of this level")
	return consoleCmd
}
