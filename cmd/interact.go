// File: cmd/interact.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/lancet-cli/internal/devtools"
)

// newClickCmd clicks the first element matching a selector.
func newClickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "click <selector>",
		Short: "Clicks the first element matching a CSS selector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				outcome, err := client.ClickElement(ctx, args[0])
				if err != nil {
					return err
				}
				reportOutcome(cmd, args[0], outcome)
				return nil
			})
		},
	}
}

// newSetValueCmd writes a value into the first element matching a
// selector.
func newSetValueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-value <selector> <value>",
		Short: "Sets the value of the first element matching a CSS selector",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, sessionOptions{}, func(ctx context.Context, client devtools.Client) error {
				outcome, err := client.SetElementValue(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				reportOutcome(cmd, args[0], outcome)
				return nil
			})
		},
	}
}

func reportOutcome(cmd *cobra.Command, selector string, outcome devtools.Outcome) {
	if outcome == devtools.OutcomeNotFound {
		fmt.Fprintf(cmd.OutOrStdout(), "No element matches %q\n", selector)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", selector, outcome)
}
